package db

import (
	"context"

	"itlend/models"
)

func (r *Repo) StudentByUsername(ctx context.Context, username string) (*models.Student, error) {
	var s models.Student
	ok, err := first(r.DB.WithContext(ctx), &s, "LOWER(username) = LOWER(?)", username)
	if !ok {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) StudentByID(ctx context.Context, id uint) (*models.Student, error) {
	var s models.Student
	ok, err := first(r.DB.WithContext(ctx), &s, "id = ?", id)
	if !ok {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) LockStudent(ctx context.Context, id uint) (*models.Student, error) {
	var s models.Student
	ok, err := first(r.locked(ctx), &s, "id = ?", id)
	if !ok {
		return nil, err
	}
	return &s, nil
}

// 关键词匹配用户名/姓/名
func (r *Repo) ListStudents(ctx context.Context, search string) ([]models.Student, error) {
	q := r.DB.WithContext(ctx).Model(&models.Student{}).Order("username ASC")
	if search != "" {
		l := like(search)
		q = q.Where("LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", l, l, l)
	}
	var ss []models.Student
	if err := q.Find(&ss).Error; err != nil {
		return nil, translate(err)
	}
	return ss, nil
}

func (r *Repo) AddStudent(ctx context.Context, s *models.Student) error {
	return translate(r.DB.WithContext(ctx).Create(s).Error)
}

func (r *Repo) UpdateStudent(ctx context.Context, s *models.Student, version int64) (bool, error) {
	ok, err := versioned(ctx, r.DB, &models.Student{}, s.ID, version, map[string]any{
		"username":            s.Username,
		"first_name":          s.FirstName,
		"last_name":           s.LastName,
		"email":               s.Email,
		"mobile_phone_number": s.MobilePhoneNumber,
		"gender":              s.Gender,
	})
	if ok {
		s.Version = version + 1
	}
	return ok, err
}

func (r *Repo) RemoveStudent(ctx context.Context, id uint, version int64) (bool, error) {
	return removeVersioned(ctx, r.DB, &models.Student{}, id, version)
}
