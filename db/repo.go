package db

import (
	"context"
	"errors"
	"strings"

	"itlend/lending"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo implements lending.Store on gorm.
type Repo struct{ DB *gorm.DB }

var _ lending.Store = (*Repo)(nil)

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

func (r *Repo) Transaction(ctx context.Context, fn func(tx lending.Querier) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	})
}

func (r *Repo) Exists(ctx context.Context, model any, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error
	return n > 0, translate(err)
}

// locked adds SELECT ... FOR UPDATE where the dialect has row locks.
// sqlite serialises writers on its own.
func (r *Repo) locked(ctx context.Context) *gorm.DB {
	q := r.DB.WithContext(ctx)
	if r.DB.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// first loads one row into dest. A miss is (false, nil).
func first(q *gorm.DB, dest any, conds ...any) (bool, error) {
	err := q.First(dest, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate(err)
	}
	return true, nil
}

// versioned applies a map update guarded by the expected version and bumps
// the version column. It reports whether a row matched.
func versioned(ctx context.Context, db *gorm.DB, model any, id uint, version int64, fields map[string]any) (bool, error) {
	fields["version"] = gorm.Expr("version + 1")
	res := db.WithContext(ctx).Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func removeVersioned(ctx context.Context, db *gorm.DB, model any, id uint, version int64) (bool, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND version = ?", id, version).
		Delete(model)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func like(search string) string {
	return "%" + strings.ToLower(search) + "%"
}

// translate maps unique violations from either driver to
// lending.ErrDuplicateKey.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return lending.ErrDuplicateKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return lending.ErrDuplicateKey
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return lending.ErrDuplicateKey
	}
	return err
}
