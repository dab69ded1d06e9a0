package lending

import (
	"context"
	"errors"
	"time"

	"itlend/models"
)

// ErrDuplicateKey is returned by a Store when a write hits a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// BookingFilter narrows ListBookings. Zero fields do not filter.
type BookingFilter struct {
	Returned      *bool
	StudentID     uint
	LaptopID      uint
	TeacherID     uint
	PlannedBefore *time.Time
}

// LaptopQuery pages through laptops ordered by id. Limit <= 0 means all.
type LaptopQuery struct {
	Available *bool
	After     uint
	Limit     int
}

// Querier is the persistence contract of the lending core.
//
// Lookups return (nil, nil) when nothing matches; an error always means the
// store itself failed. Natural-key lookups are case-insensitive exact
// matches. Versioned writes (Update*, Remove*, SetLaptopAvailability) only
// apply when the stored version equals the given one and report false
// otherwise; a successful update bumps the entity's Version in place.
type Querier interface {
	Exists(ctx context.Context, model any, id uint) (bool, error)

	StudentByUsername(ctx context.Context, username string) (*models.Student, error)
	StudentByID(ctx context.Context, id uint) (*models.Student, error)
	LockStudent(ctx context.Context, id uint) (*models.Student, error)
	ListStudents(ctx context.Context, search string) ([]models.Student, error)
	AddStudent(ctx context.Context, s *models.Student) error
	UpdateStudent(ctx context.Context, s *models.Student, version int64) (bool, error)
	RemoveStudent(ctx context.Context, id uint, version int64) (bool, error)

	LaptopByIdentification(ctx context.Context, identificationNumber string) (*models.Laptop, error)
	LaptopByID(ctx context.Context, id uint) (*models.Laptop, error)
	LockLaptop(ctx context.Context, id uint) (*models.Laptop, error)
	ListLaptops(ctx context.Context, q LaptopQuery) ([]models.Laptop, error)
	AddLaptop(ctx context.Context, l *models.Laptop) error
	UpdateLaptop(ctx context.Context, l *models.Laptop, version int64) (bool, error)
	SetLaptopAvailability(ctx context.Context, id uint, available bool, version int64) (bool, error)
	RemoveLaptop(ctx context.Context, id uint, version int64) (bool, error)

	TeacherByEmail(ctx context.Context, email string) (*models.Teacher, error)
	TeacherByID(ctx context.Context, id uint) (*models.Teacher, error)
	LockTeacher(ctx context.Context, id uint) (*models.Teacher, error)
	ListTeachers(ctx context.Context, search string) ([]models.Teacher, error)
	AddTeacher(ctx context.Context, t *models.Teacher) error
	UpdateTeacher(ctx context.Context, t *models.Teacher, version int64) (bool, error)
	RemoveTeacher(ctx context.Context, id uint, version int64) (bool, error)

	// BookingByID and ListBookings load Student, Laptop and Teacher.
	BookingByID(ctx context.Context, id uint) (*models.Booking, error)
	LockBooking(ctx context.Context, id uint) (*models.Booking, error)
	ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	CountOpenBookings(ctx context.Context, laptopID, excludeBookingID uint) (int64, error)
	AddBooking(ctx context.Context, b *models.Booking) error
	UpdateBooking(ctx context.Context, b *models.Booking, version int64) (bool, error)
	RemoveBooking(ctx context.Context, id uint, version int64) (bool, error)
	RemoveBookings(ctx context.Context, f BookingFilter) (int64, error)
	DetachTeacher(ctx context.Context, teacherID uint) error
}

// Store adds the transaction boundary. fn runs against a Querier bound to
// one transaction which commits when fn returns nil and rolls back otherwise.
type Store interface {
	Querier
	Transaction(ctx context.Context, fn func(tx Querier) error) error
}
