package lending

import (
	"time"

	"itlend/models"
)

// BookingView is the booking as returned to callers, with natural keys
// instead of foreign keys.
type BookingView struct {
	ID              uint          `json:"id"`
	StudentUsername string        `json:"studentUsername"`
	Laptop          models.Laptop `json:"laptop"`
	TeacherEmail    *string       `json:"teacherEmail,omitempty"`
	Returned        bool          `json:"returned"`
	BookingDateTime time.Time     `json:"bookingDateTime"`
	PlannedReturn   time.Time     `json:"plannedReturn"`
	Comment         *string       `json:"comment,omitempty"`
	Version         int64         `json:"version"`
}

// StudentDetail is a student together with all of their bookings.
type StudentDetail struct {
	models.Student
	Bookings []BookingView `json:"bookings"`
}

func viewOf(b models.Booking) BookingView {
	v := BookingView{
		ID:              b.ID,
		StudentUsername: b.Student.Username,
		Laptop:          b.Laptop,
		Returned:        b.Returned,
		BookingDateTime: b.BookingDateTime,
		PlannedReturn:   b.PlannedReturn,
		Comment:         b.Comment,
		Version:         b.Version,
	}
	if b.Teacher != nil {
		email := b.Teacher.Email
		v.TeacherEmail = &email
	}
	return v
}

func viewsOf(bs []models.Booking) []BookingView {
	out := make([]BookingView, 0, len(bs))
	for _, b := range bs {
		out = append(out, viewOf(b))
	}
	return out
}
