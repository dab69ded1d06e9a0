package db

import (
	"context"

	"itlend/lending"
	"itlend/models"
)

func (r *Repo) LaptopByIdentification(ctx context.Context, identificationNumber string) (*models.Laptop, error) {
	var l models.Laptop
	ok, err := first(r.DB.WithContext(ctx), &l, "LOWER(identification_number) = LOWER(?)", identificationNumber)
	if !ok {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) LaptopByID(ctx context.Context, id uint) (*models.Laptop, error) {
	var l models.Laptop
	ok, err := first(r.DB.WithContext(ctx), &l, "id = ?", id)
	if !ok {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) LockLaptop(ctx context.Context, id uint) (*models.Laptop, error) {
	var l models.Laptop
	ok, err := first(r.locked(ctx), &l, "id = ?", id)
	if !ok {
		return nil, err
	}
	return &l, nil
}

// 按 id 升序的 keyset 分页
func (r *Repo) ListLaptops(ctx context.Context, lq lending.LaptopQuery) ([]models.Laptop, error) {
	q := r.DB.WithContext(ctx).Model(&models.Laptop{}).Order("id ASC")
	if lq.Available != nil {
		q = q.Where("is_available = ?", *lq.Available)
	}
	if lq.After > 0 {
		q = q.Where("id > ?", lq.After)
	}
	if lq.Limit > 0 {
		q = q.Limit(lq.Limit)
	}
	var ls []models.Laptop
	if err := q.Find(&ls).Error; err != nil {
		return nil, translate(err)
	}
	return ls, nil
}

func (r *Repo) AddLaptop(ctx context.Context, l *models.Laptop) error {
	return translate(r.DB.WithContext(ctx).Create(l).Error)
}

// UpdateLaptop writes descriptive fields; is_available is left alone.
func (r *Repo) UpdateLaptop(ctx context.Context, l *models.Laptop, version int64) (bool, error) {
	ok, err := versioned(ctx, r.DB, &models.Laptop{}, l.ID, version, map[string]any{
		"identification_number": l.IdentificationNumber,
		"model":                 l.Model,
		"damage_description":    l.DamageDescription,
	})
	if ok {
		l.Version = version + 1
	}
	return ok, err
}

func (r *Repo) SetLaptopAvailability(ctx context.Context, id uint, available bool, version int64) (bool, error) {
	return versioned(ctx, r.DB, &models.Laptop{}, id, version, map[string]any{
		"is_available": available,
	})
}

func (r *Repo) RemoveLaptop(ctx context.Context, id uint, version int64) (bool, error) {
	return removeVersioned(ctx, r.DB, &models.Laptop{}, id, version)
}
