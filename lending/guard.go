package lending

import (
	"context"
	"errors"
)

// Guard enforces optimistic concurrency and natural-key uniqueness on
// every write of the lending core. It never retries.
type Guard struct{}

// Write runs a versioned write. When the write matched no row the entity is
// looked up again: gone means NotFoundError, still present means the version
// was stale and a ConflictError is returned.
func (Guard) Write(ctx context.Context, q Querier, model any, entity string, id uint, write func() (bool, error)) error {
	ok, err := write()
	if errors.Is(err, ErrDuplicateKey) {
		return &ConflictError{Entity: entity, ID: id}
	}
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	found, err := q.Exists(ctx, model, id)
	if err != nil {
		return err
	}
	if !found {
		return notFound(entity, id)
	}
	return &ConflictError{Entity: entity, ID: id}
}

// Unique fails when the natural key is already held by another row.
// self is the id of the row being written, 0 on insert.
func (Guard) Unique(field string, found bool, holder, self uint) error {
	if found && holder != self {
		return &ValidationError{Field: field, Reason: "already in use"}
	}
	return nil
}

// Insert maps a unique-index violation that slipped past the pre-check
// (a concurrent insert) to a ValidationError on field.
func (Guard) Insert(field string, err error) error {
	if errors.Is(err, ErrDuplicateKey) {
		return &ValidationError{Field: field, Reason: "already in use"}
	}
	return err
}
