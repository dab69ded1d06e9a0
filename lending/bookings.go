package lending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"itlend/models"
)

// BookingInput carries the full set of booking fields for Create and Update.
// Update replaces every field; nothing is merged.
type BookingInput struct {
	ID                         uint      `json:"id"`
	StudentUsername            string    `json:"studentUsername" validate:"required,max=30"`
	LaptopIdentificationNumber string    `json:"laptopIdentificationNumber" validate:"required,max=50"`
	TeacherEmail               string    `json:"teacherEmail,omitempty" validate:"omitempty,email,max=320"`
	Returned                   bool      `json:"returned"`
	BookingDateTime            time.Time `json:"bookingDateTime" validate:"required"`
	PlannedReturn              time.Time `json:"plannedReturn" validate:"required"`
	Comment                    *string   `json:"comment,omitempty" validate:"omitempty,max=1000"`
	// Version is the version the caller last read. On Update, 0 means the
	// version loaded inside the operation.
	Version int64 `json:"version,omitempty"`
}

func (in *BookingInput) normalize() {
	in.StudentUsername = strings.TrimSpace(in.StudentUsername)
	in.LaptopIdentificationNumber = strings.TrimSpace(in.LaptopIdentificationNumber)
	in.TeacherEmail = strings.TrimSpace(in.TeacherEmail)
}

func (in BookingInput) validate() error {
	if err := check(in); err != nil {
		return err
	}
	if in.PlannedReturn.Before(in.BookingDateTime) {
		return &ValidationError{Field: FieldPlannedReturn, Reason: "must not be before bookingDateTime"}
	}
	return nil
}

type Options struct {
	// AutoCreateStudents lets Create and Update insert a student that only
	// has a username when the given username is unknown.
	AutoCreateStudents bool
	Notifier           Notifier
	Logger             *slog.Logger
}

// Service is the booking lifecycle manager. Every operation is one unit of
// work against the store; compound writes share a single transaction.
type Service struct {
	store      Store
	resolver   Resolver
	ledger     *Ledger
	guard      Guard
	notifier   Notifier
	log        *slog.Logger
	autoCreate bool
}

func New(store Store, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:      store,
		ledger:     NewLedger(store, log),
		notifier:   opts.Notifier,
		log:        log,
		autoCreate: opts.AutoCreateStudents,
	}
}

func (s *Service) Ledger() *Ledger { return s.ledger }

func (s *Service) Resolver() Resolver { return s.resolver }

type resolved struct {
	student StudentRef
	laptop  LaptopRef
	teacher *TeacherRef
}

func (s *Service) resolve(ctx context.Context, tx Querier, in BookingInput) (resolved, error) {
	var (
		r   resolved
		ok  bool
		err error
	)
	if s.autoCreate {
		var created bool
		r.student, created, err = s.resolver.ResolveOrCreateStudent(ctx, tx, in.StudentUsername)
		if created {
			s.log.Info("student created for booking", "student_id", r.student.ID, "username", r.student.Username)
		}
		ok = err == nil
	} else {
		r.student, ok, err = s.resolver.ResolveStudent(ctx, tx, in.StudentUsername)
	}
	if err != nil {
		return r, err
	}
	if !ok {
		return r, &ValidationError{
			Field:  FieldStudentUsername,
			Reason: fmt.Sprintf("student %q not found", in.StudentUsername),
		}
	}

	r.laptop, ok, err = s.resolver.ResolveLaptop(ctx, tx, in.LaptopIdentificationNumber)
	if err != nil {
		return r, err
	}
	if !ok {
		return r, &ValidationError{
			Field:  FieldLaptopIdentificationNumber,
			Reason: fmt.Sprintf("laptop %q not found", in.LaptopIdentificationNumber),
		}
	}

	// 老师可选：空值合法，给了就必须存在
	if in.TeacherEmail == "" {
		return r, nil
	}
	t, ok, err := s.resolver.ResolveTeacher(ctx, tx, in.TeacherEmail)
	if err != nil {
		return r, err
	}
	if !ok {
		return r, &ValidationError{
			Field:  FieldTeacherEmail,
			Reason: fmt.Sprintf("teacher %q not found", in.TeacherEmail),
		}
	}
	r.teacher = &t
	return r, nil
}

func (r resolved) apply(b *models.Booking, in BookingInput) {
	b.StudentID = r.student.ID
	b.LaptopID = r.laptop.ID
	b.TeacherID = nil
	if r.teacher != nil {
		id := r.teacher.ID
		b.TeacherID = &id
	}
	b.Returned = in.Returned
	b.BookingDateTime = in.BookingDateTime
	b.PlannedReturn = in.PlannedReturn
	b.Comment = in.Comment
}

// requireFree locks the laptop row and fails when another open booking
// holds it. bookingID is the booking being written, 0 on create.
func (s *Service) requireFree(ctx context.Context, tx Querier, laptop LaptopRef, bookingID uint) error {
	lp, err := tx.LockLaptop(ctx, laptop.ID)
	if err != nil {
		return err
	}
	if lp == nil {
		return &ValidationError{
			Field:  FieldLaptopIdentificationNumber,
			Reason: fmt.Sprintf("laptop %q not found", laptop.IdentificationNumber),
		}
	}
	n, err := tx.CountOpenBookings(ctx, laptop.ID, bookingID)
	if err != nil {
		return err
	}
	if n > 0 {
		return laptopBusy(laptop)
	}
	return nil
}

func laptopBusy(laptop LaptopRef) *ValidationError {
	return &ValidationError{
		Field:  FieldLaptopIdentificationNumber,
		Reason: fmt.Sprintf("laptop %q is currently lent out", laptop.IdentificationNumber),
	}
}

// Create persists a new booking. An open booking marks its laptop
// unavailable in the same transaction; a booking created already returned
// leaves availability untouched.
func (s *Service) Create(ctx context.Context, in BookingInput) (*BookingView, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	var id uint
	err := s.store.Transaction(ctx, func(tx Querier) error {
		refs, err := s.resolve(ctx, tx, in)
		if err != nil {
			return err
		}
		if !in.Returned {
			if err := s.requireFree(ctx, tx, refs.laptop, 0); err != nil {
				return err
			}
		}
		b := &models.Booking{Version: 1}
		refs.apply(b, in)
		if err := tx.AddBooking(ctx, b); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				return laptopBusy(refs.laptop)
			}
			return err
		}
		if !in.Returned {
			if err := s.ledger.markUnavailable(ctx, tx, refs.laptop.ID); err != nil {
				return err
			}
		}
		id = b.ID
		return nil
	})
	if err != nil {
		return nil, infra("create booking", err)
	}

	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking created", "booking_id", v.ID, "laptop_id", v.Laptop.ID, "returned", v.Returned)
	s.notify(ctx, v, "Notebook ausgeliehen",
		fmt.Sprintf("Student %s has borrowed laptop %s. Planned return: %s.",
			v.StudentUsername, v.Laptop.IdentificationNumber, v.PlannedReturn.Format(time.DateTime)))
	return v, nil
}

// Update replaces all fields of booking id. Availability is not re-derived;
// callers that toggle Returned or move the booking to another laptop must
// follow up with Ledger.Reconcile.
func (s *Service) Update(ctx context.Context, id uint, in BookingInput) (*BookingView, error) {
	if in.ID != 0 && in.ID != id {
		return nil, &ValidationError{Field: FieldID, Reason: "does not match the booking being updated"}
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(tx Querier) error {
		cur, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return notFound(EntityBooking, id)
		}
		version := cur.Version
		if in.Version != 0 {
			version = in.Version
		}
		refs, err := s.resolve(ctx, tx, in)
		if err != nil {
			return err
		}
		if !in.Returned {
			if err := s.requireFree(ctx, tx, refs.laptop, id); err != nil {
				return err
			}
		}
		next := *cur
		refs.apply(&next, in)
		return s.guard.Write(ctx, tx, &models.Booking{}, EntityBooking, id, func() (bool, error) {
			return tx.UpdateBooking(ctx, &next, version)
		})
	})
	if err != nil {
		return nil, infra("update booking", err)
	}
	s.log.Info("booking updated", "booking_id", id)
	return s.Get(ctx, id)
}

// Return closes an open booking and makes its laptop available again, both
// in one transaction. Returning a closed booking is a no-op.
func (s *Service) Return(ctx context.Context, id uint) (*BookingView, error) {
	var closed bool
	err := s.store.Transaction(ctx, func(tx Querier) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound(EntityBooking, id)
		}
		// 幂等：已归还直接返回
		if b.Returned {
			return nil
		}
		next := *b
		next.Returned = true
		if err := s.guard.Write(ctx, tx, &models.Booking{}, EntityBooking, id, func() (bool, error) {
			return tx.UpdateBooking(ctx, &next, b.Version)
		}); err != nil {
			return err
		}
		if err := s.ledger.markAvailable(ctx, tx, b.LaptopID); err != nil {
			return err
		}
		closed = true
		return nil
	})
	if err != nil {
		return nil, infra("return booking", err)
	}

	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if closed {
		s.log.Info("booking returned", "booking_id", id, "laptop_id", v.Laptop.ID)
		s.notify(ctx, v, "Rückgabe des Notebooks",
			fmt.Sprintf("Laptop %s borrowed by %s has been returned.",
				v.Laptop.IdentificationNumber, v.StudentUsername))
	}
	return v, nil
}

// Delete removes the booking record. It is a correction, not a return, so
// laptop availability is left alone.
func (s *Service) Delete(ctx context.Context, id uint) (*BookingView, error) {
	var removed *models.Booking
	err := s.store.Transaction(ctx, func(tx Querier) error {
		b, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return notFound(EntityBooking, id)
		}
		if removed, err = tx.BookingByID(ctx, id); err != nil {
			return err
		}
		return s.guard.Write(ctx, tx, &models.Booking{}, EntityBooking, id, func() (bool, error) {
			return tx.RemoveBooking(ctx, id, b.Version)
		})
	})
	if err != nil {
		return nil, infra("delete booking", err)
	}
	s.log.Info("booking deleted", "booking_id", id, "laptop_id", removed.LaptopID)
	v := viewOf(*removed)
	return &v, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*BookingView, error) {
	b, err := s.store.BookingByID(ctx, id)
	if err != nil {
		return nil, infra("get booking", err)
	}
	if b == nil {
		return nil, notFound(EntityBooking, id)
	}
	v := viewOf(*b)
	return &v, nil
}

// List returns all bookings, newest bookingDateTime first.
func (s *Service) List(ctx context.Context) ([]BookingView, error) {
	return s.list(ctx, "list bookings", BookingFilter{})
}

// ListOpen returns bookings not yet returned, newest first.
func (s *Service) ListOpen(ctx context.Context) ([]BookingView, error) {
	returned := false
	return s.list(ctx, "list open bookings", BookingFilter{Returned: &returned})
}

// ListClosed returns returned bookings, newest first.
func (s *Service) ListClosed(ctx context.Context) ([]BookingView, error) {
	returned := true
	return s.list(ctx, "list closed bookings", BookingFilter{Returned: &returned})
}

// ListOverdue returns open bookings whose planned return lies before now.
func (s *Service) ListOverdue(ctx context.Context, now time.Time) ([]BookingView, error) {
	returned := false
	return s.list(ctx, "list overdue bookings", BookingFilter{Returned: &returned, PlannedBefore: &now})
}

func (s *Service) ListByStudent(ctx context.Context, username string) ([]BookingView, error) {
	ref, ok, err := s.resolver.ResolveStudent(ctx, s.store, username)
	if err != nil {
		return nil, infra("list bookings by student", err)
	}
	if !ok {
		return nil, &NotFoundError{Entity: EntityStudent, Key: strings.TrimSpace(username)}
	}
	return s.list(ctx, "list bookings by student", BookingFilter{StudentID: ref.ID})
}

func (s *Service) ListByLaptop(ctx context.Context, laptopID uint) ([]BookingView, error) {
	found, err := s.store.Exists(ctx, &models.Laptop{}, laptopID)
	if err != nil {
		return nil, infra("list bookings by laptop", err)
	}
	if !found {
		return nil, notFound(EntityLaptop, laptopID)
	}
	return s.list(ctx, "list bookings by laptop", BookingFilter{LaptopID: laptopID})
}

func (s *Service) list(ctx context.Context, op string, f BookingFilter) ([]BookingView, error) {
	bs, err := s.store.ListBookings(ctx, f)
	if err != nil {
		return nil, infra(op, err)
	}
	return viewsOf(bs), nil
}

func (s *Service) notify(ctx context.Context, v *BookingView, subject, body string) {
	if s.notifier == nil || v.TeacherEmail == nil {
		return
	}
	if err := s.notifier.Send(ctx, *v.TeacherEmail, subject, body); err != nil {
		s.log.Warn("booking notification failed", "booking_id", v.ID, "to", *v.TeacherEmail, "err", err)
	}
}
