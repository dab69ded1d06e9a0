package db

import (
	"context"

	"itlend/models"
)

func (r *Repo) TeacherByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	var t models.Teacher
	ok, err := first(r.DB.WithContext(ctx), &t, "LOWER(email) = LOWER(?)", email)
	if !ok {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) TeacherByID(ctx context.Context, id uint) (*models.Teacher, error) {
	var t models.Teacher
	ok, err := first(r.DB.WithContext(ctx), &t, "id = ?", id)
	if !ok {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) LockTeacher(ctx context.Context, id uint) (*models.Teacher, error) {
	var t models.Teacher
	ok, err := first(r.locked(ctx), &t, "id = ?", id)
	if !ok {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) ListTeachers(ctx context.Context, search string) ([]models.Teacher, error) {
	q := r.DB.WithContext(ctx).Model(&models.Teacher{}).Order("email ASC")
	if search != "" {
		q = q.Where("LOWER(email) LIKE ?", like(search))
	}
	var ts []models.Teacher
	if err := q.Find(&ts).Error; err != nil {
		return nil, translate(err)
	}
	return ts, nil
}

func (r *Repo) AddTeacher(ctx context.Context, t *models.Teacher) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *Repo) UpdateTeacher(ctx context.Context, t *models.Teacher, version int64) (bool, error) {
	ok, err := versioned(ctx, r.DB, &models.Teacher{}, t.ID, version, map[string]any{
		"email": t.Email,
	})
	if ok {
		t.Version = version + 1
	}
	return ok, err
}

func (r *Repo) RemoveTeacher(ctx context.Context, id uint, version int64) (bool, error) {
	return removeVersioned(ctx, r.DB, &models.Teacher{}, id, version)
}
