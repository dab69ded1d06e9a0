package db

import (
	"context"

	"itlend/lending"
	"itlend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func withRefs(q *gorm.DB) *gorm.DB {
	return q.Preload("Student").Preload("Laptop").Preload("Teacher")
}

func bookingFilter(q *gorm.DB, f lending.BookingFilter) *gorm.DB {
	if f.Returned != nil {
		q = q.Where("returned = ?", *f.Returned)
	}
	if f.StudentID > 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.LaptopID > 0 {
		q = q.Where("laptop_id = ?", f.LaptopID)
	}
	if f.TeacherID > 0 {
		q = q.Where("teacher_id = ?", f.TeacherID)
	}
	if f.PlannedBefore != nil {
		q = q.Where("planned_return < ?", *f.PlannedBefore)
	}
	return q
}

func (r *Repo) BookingByID(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	ok, err := first(withRefs(r.DB.WithContext(ctx)), &b, "id = ?", id)
	if !ok {
		return nil, err
	}
	return &b, nil
}

// LockBooking locks the booking row only; associations are not loaded.
func (r *Repo) LockBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	ok, err := first(r.locked(ctx), &b, "id = ?", id)
	if !ok {
		return nil, err
	}
	return &b, nil
}

// 按借出时间倒序
func (r *Repo) ListBookings(ctx context.Context, f lending.BookingFilter) ([]models.Booking, error) {
	q := bookingFilter(withRefs(r.DB.WithContext(ctx)).Model(&models.Booking{}), f).
		Order("booking_date_time DESC").
		Order("id DESC")
	var bs []models.Booking
	if err := q.Find(&bs).Error; err != nil {
		return nil, translate(err)
	}
	return bs, nil
}

func (r *Repo) CountOpenBookings(ctx context.Context, laptopID, excludeBookingID uint) (int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("laptop_id = ? AND returned = ?", laptopID, false)
	if excludeBookingID > 0 {
		q = q.Where("id <> ?", excludeBookingID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (r *Repo) AddBooking(ctx context.Context, b *models.Booking) error {
	return translate(r.DB.WithContext(ctx).Omit(clause.Associations).Create(b).Error)
}

func (r *Repo) UpdateBooking(ctx context.Context, b *models.Booking, version int64) (bool, error) {
	ok, err := versioned(ctx, r.DB, &models.Booking{}, b.ID, version, map[string]any{
		"student_id":        b.StudentID,
		"laptop_id":         b.LaptopID,
		"teacher_id":        b.TeacherID,
		"returned":          b.Returned,
		"booking_date_time": b.BookingDateTime,
		"planned_return":    b.PlannedReturn,
		"comment":           b.Comment,
	})
	if ok {
		b.Version = version + 1
	}
	return ok, err
}

func (r *Repo) RemoveBooking(ctx context.Context, id uint, version int64) (bool, error) {
	return removeVersioned(ctx, r.DB, &models.Booking{}, id, version)
}

// RemoveBookings deletes every booking matching f. An empty filter is
// refused by gorm rather than wiping the table.
func (r *Repo) RemoveBookings(ctx context.Context, f lending.BookingFilter) (int64, error) {
	res := bookingFilter(r.DB.WithContext(ctx), f).Delete(&models.Booking{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repo) DetachTeacher(ctx context.Context, teacherID uint) error {
	err := r.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("teacher_id = ?", teacherID).
		Updates(map[string]any{
			"teacher_id": nil,
			"version":    gorm.Expr("version + 1"),
		}).Error
	return translate(err)
}
