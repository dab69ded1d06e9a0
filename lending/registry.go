package lending

import (
	"context"
	"strings"

	"itlend/models"
)

type StudentInput struct {
	Username          string  `json:"username" validate:"required,max=30"`
	FirstName         *string `json:"firstName,omitempty" validate:"omitempty,max=50"`
	LastName          *string `json:"lastName,omitempty" validate:"omitempty,max=50"`
	Email             *string `json:"email,omitempty" validate:"omitempty,email,max=320"`
	MobilePhoneNumber *string `json:"mobilePhoneNumber,omitempty" validate:"omitempty,max=30"`
	Gender            *string `json:"gender,omitempty" validate:"omitempty,max=10"`
	Version           int64   `json:"version,omitempty"`
}

type LaptopInput struct {
	IdentificationNumber string  `json:"identificationNumber" validate:"required,max=50"`
	Model                string  `json:"model" validate:"required,max=100"`
	DamageDescription    *string `json:"damageDescription,omitempty" validate:"omitempty,max=1000"`
	Version              int64   `json:"version,omitempty"`
}

type TeacherInput struct {
	Email   string `json:"email" validate:"required,email,max=320"`
	Version int64  `json:"version,omitempty"`
}

// Registry maintains students, laptops and teachers. Natural keys stay
// unique ignoring case, and deleting a student or laptop takes its bookings
// with it so no open booking is left pointing at nothing.
type Registry struct {
	store  Store
	ledger *Ledger
	guard  Guard
}

func NewRegistry(store Store, ledger *Ledger) *Registry {
	return &Registry{store: store, ledger: ledger}
}

func pick(in, cur int64) int64 {
	if in != 0 {
		return in
	}
	return cur
}

/* ---------- students ---------- */

func (r *Registry) ListStudents(ctx context.Context, search string) ([]models.Student, error) {
	ss, err := r.store.ListStudents(ctx, strings.TrimSpace(search))
	return ss, infra("list students", err)
}

// GetStudent returns the student with all of their bookings, newest first.
func (r *Registry) GetStudent(ctx context.Context, id uint) (*StudentDetail, error) {
	s, err := r.store.StudentByID(ctx, id)
	if err != nil {
		return nil, infra("get student", err)
	}
	if s == nil {
		return nil, notFound(EntityStudent, id)
	}
	bs, err := r.store.ListBookings(ctx, BookingFilter{StudentID: id})
	if err != nil {
		return nil, infra("get student", err)
	}
	return &StudentDetail{Student: *s, Bookings: viewsOf(bs)}, nil
}

func (r *Registry) CreateStudent(ctx context.Context, in StudentInput) (*models.Student, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := check(in); err != nil {
		return nil, err
	}
	s := &models.Student{Version: 1}
	in.apply(s)
	err := r.store.Transaction(ctx, func(tx Querier) error {
		other, err := tx.StudentByUsername(ctx, in.Username)
		if err != nil {
			return err
		}
		if err := r.guard.Unique(FieldUsername, other != nil, idOf(other), 0); err != nil {
			return err
		}
		return r.guard.Insert(FieldUsername, tx.AddStudent(ctx, s))
	})
	if err != nil {
		return nil, infra("create student", err)
	}
	return s, nil
}

func (r *Registry) UpdateStudent(ctx context.Context, id uint, in StudentInput) (*models.Student, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := check(in); err != nil {
		return nil, err
	}
	var out models.Student
	err := r.store.Transaction(ctx, func(tx Querier) error {
		cur, err := tx.LockStudent(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return notFound(EntityStudent, id)
		}
		other, err := tx.StudentByUsername(ctx, in.Username)
		if err != nil {
			return err
		}
		if err := r.guard.Unique(FieldUsername, other != nil, idOf(other), id); err != nil {
			return err
		}
		out = *cur
		in.apply(&out)
		return r.guard.Write(ctx, tx, &models.Student{}, EntityStudent, id, func() (bool, error) {
			return tx.UpdateStudent(ctx, &out, pick(in.Version, cur.Version))
		})
	})
	if err != nil {
		return nil, infra("update student", err)
	}
	return &out, nil
}

// DeleteStudent removes the student and their bookings. Laptops held by the
// student's open bookings become available again.
func (r *Registry) DeleteStudent(ctx context.Context, id uint) (*models.Student, error) {
	var out *models.Student
	err := r.store.Transaction(ctx, func(tx Querier) error {
		s, err := tx.LockStudent(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return notFound(EntityStudent, id)
		}
		if err := r.dropBookings(ctx, tx, BookingFilter{StudentID: id}); err != nil {
			return err
		}
		out = s
		return r.guard.Write(ctx, tx, &models.Student{}, EntityStudent, id, func() (bool, error) {
			return tx.RemoveStudent(ctx, id, s.Version)
		})
	})
	if err != nil {
		return nil, infra("delete student", err)
	}
	return out, nil
}

// dropBookings removes the matching bookings and frees every laptop that
// one of them held open.
func (r *Registry) dropBookings(ctx context.Context, tx Querier, f BookingFilter) error {
	open := false
	f.Returned = &open
	held, err := tx.ListBookings(ctx, f)
	if err != nil {
		return err
	}
	f.Returned = nil
	if _, err := tx.RemoveBookings(ctx, f); err != nil {
		return err
	}
	for _, b := range held {
		if err := r.ledger.markAvailable(ctx, tx, b.LaptopID); err != nil {
			return err
		}
	}
	return nil
}

func (in StudentInput) apply(s *models.Student) {
	s.Username = in.Username
	s.FirstName = in.FirstName
	s.LastName = in.LastName
	s.Email = in.Email
	s.MobilePhoneNumber = in.MobilePhoneNumber
	s.Gender = in.Gender
}

func idOf[T models.Student | models.Laptop | models.Teacher](v *T) uint {
	if v == nil {
		return 0
	}
	switch x := any(v).(type) {
	case *models.Student:
		return x.ID
	case *models.Laptop:
		return x.ID
	case *models.Teacher:
		return x.ID
	}
	return 0
}

/* ---------- laptops ---------- */

func (r *Registry) ListLaptops(ctx context.Context) ([]models.Laptop, error) {
	ls, err := r.store.ListLaptops(ctx, LaptopQuery{})
	return ls, infra("list laptops", err)
}

func (r *Registry) GetLaptop(ctx context.Context, id uint) (*models.Laptop, error) {
	l, err := r.store.LaptopByID(ctx, id)
	if err != nil {
		return nil, infra("get laptop", err)
	}
	if l == nil {
		return nil, notFound(EntityLaptop, id)
	}
	return l, nil
}

// CreateLaptop registers a laptop. New laptops are always available.
func (r *Registry) CreateLaptop(ctx context.Context, in LaptopInput) (*models.Laptop, error) {
	in.IdentificationNumber = strings.TrimSpace(in.IdentificationNumber)
	in.Model = strings.TrimSpace(in.Model)
	if err := check(in); err != nil {
		return nil, err
	}
	l := &models.Laptop{IsAvailable: true, Version: 1}
	in.apply(l)
	err := r.store.Transaction(ctx, func(tx Querier) error {
		other, err := tx.LaptopByIdentification(ctx, in.IdentificationNumber)
		if err != nil {
			return err
		}
		if err := r.guard.Unique(FieldIdentificationNumber, other != nil, idOf(other), 0); err != nil {
			return err
		}
		return r.guard.Insert(FieldIdentificationNumber, tx.AddLaptop(ctx, l))
	})
	if err != nil {
		return nil, infra("create laptop", err)
	}
	return l, nil
}

// UpdateLaptop changes descriptive fields only. Availability belongs to
// the Ledger.
func (r *Registry) UpdateLaptop(ctx context.Context, id uint, in LaptopInput) (*models.Laptop, error) {
	in.IdentificationNumber = strings.TrimSpace(in.IdentificationNumber)
	in.Model = strings.TrimSpace(in.Model)
	if err := check(in); err != nil {
		return nil, err
	}
	var out models.Laptop
	err := r.store.Transaction(ctx, func(tx Querier) error {
		cur, err := tx.LockLaptop(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return notFound(EntityLaptop, id)
		}
		other, err := tx.LaptopByIdentification(ctx, in.IdentificationNumber)
		if err != nil {
			return err
		}
		if err := r.guard.Unique(FieldIdentificationNumber, other != nil, idOf(other), id); err != nil {
			return err
		}
		out = *cur
		in.apply(&out)
		return r.guard.Write(ctx, tx, &models.Laptop{}, EntityLaptop, id, func() (bool, error) {
			return tx.UpdateLaptop(ctx, &out, pick(in.Version, cur.Version))
		})
	})
	if err != nil {
		return nil, infra("update laptop", err)
	}
	return &out, nil
}

// DeleteLaptop removes the laptop and every booking of it.
func (r *Registry) DeleteLaptop(ctx context.Context, id uint) (*models.Laptop, error) {
	var out *models.Laptop
	err := r.store.Transaction(ctx, func(tx Querier) error {
		l, err := tx.LockLaptop(ctx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return notFound(EntityLaptop, id)
		}
		if _, err := tx.RemoveBookings(ctx, BookingFilter{LaptopID: id}); err != nil {
			return err
		}
		out = l
		return r.guard.Write(ctx, tx, &models.Laptop{}, EntityLaptop, id, func() (bool, error) {
			return tx.RemoveLaptop(ctx, id, l.Version)
		})
	})
	if err != nil {
		return nil, infra("delete laptop", err)
	}
	return out, nil
}

func (in LaptopInput) apply(l *models.Laptop) {
	l.IdentificationNumber = in.IdentificationNumber
	l.Model = in.Model
	l.DamageDescription = in.DamageDescription
}

/* ---------- teachers ---------- */

func (r *Registry) ListTeachers(ctx context.Context, search string) ([]models.Teacher, error) {
	ts, err := r.store.ListTeachers(ctx, strings.TrimSpace(search))
	return ts, infra("list teachers", err)
}

func (r *Registry) GetTeacher(ctx context.Context, id uint) (*models.Teacher, error) {
	t, err := r.store.TeacherByID(ctx, id)
	if err != nil {
		return nil, infra("get teacher", err)
	}
	if t == nil {
		return nil, notFound(EntityTeacher, id)
	}
	return t, nil
}

func (r *Registry) CreateTeacher(ctx context.Context, in TeacherInput) (*models.Teacher, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}
	t := &models.Teacher{Email: in.Email, Version: 1}
	err := r.store.Transaction(ctx, func(tx Querier) error {
		other, err := tx.TeacherByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if err := r.guard.Unique(FieldEmail, other != nil, idOf(other), 0); err != nil {
			return err
		}
		return r.guard.Insert(FieldEmail, tx.AddTeacher(ctx, t))
	})
	if err != nil {
		return nil, infra("create teacher", err)
	}
	return t, nil
}

func (r *Registry) UpdateTeacher(ctx context.Context, id uint, in TeacherInput) (*models.Teacher, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := check(in); err != nil {
		return nil, err
	}
	var out models.Teacher
	err := r.store.Transaction(ctx, func(tx Querier) error {
		cur, err := tx.LockTeacher(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return notFound(EntityTeacher, id)
		}
		other, err := tx.TeacherByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if err := r.guard.Unique(FieldEmail, other != nil, idOf(other), id); err != nil {
			return err
		}
		out = *cur
		out.Email = in.Email
		return r.guard.Write(ctx, tx, &models.Teacher{}, EntityTeacher, id, func() (bool, error) {
			return tx.UpdateTeacher(ctx, &out, pick(in.Version, cur.Version))
		})
	})
	if err != nil {
		return nil, infra("update teacher", err)
	}
	return &out, nil
}

// DeleteTeacher removes the teacher; their bookings stay and lose the
// teacher reference.
func (r *Registry) DeleteTeacher(ctx context.Context, id uint) (*models.Teacher, error) {
	var out *models.Teacher
	err := r.store.Transaction(ctx, func(tx Querier) error {
		t, err := tx.LockTeacher(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return notFound(EntityTeacher, id)
		}
		if err := tx.DetachTeacher(ctx, id); err != nil {
			return err
		}
		out = t
		return r.guard.Write(ctx, tx, &models.Teacher{}, EntityTeacher, id, func() (bool, error) {
			return tx.RemoveTeacher(ctx, id, t.Version)
		})
	})
	if err != nil {
		return nil, infra("delete teacher", err)
	}
	return out, nil
}
