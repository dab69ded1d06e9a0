package lending_test

import (
	"errors"
	"testing"
	"time"

	"itlend/lending"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLendsLaptop(t *testing.T) {
	f := newFixture(t, lending.Options{})
	alice := f.student(t, "alice")
	lp := f.laptop(t, "SN-001")
	f.teacher(t, "t@x.org")

	in := input("alice", "SN-001")
	in.TeacherEmail = "t@x.org"
	v, err := f.svc.Create(f.ctx, in)
	require.NoError(t, err)

	assert.NotZero(t, v.ID)
	assert.Equal(t, "alice", v.StudentUsername)
	assert.Equal(t, lp.ID, v.Laptop.ID)
	assert.False(t, v.Laptop.IsAvailable)
	require.NotNil(t, v.TeacherEmail)
	assert.Equal(t, "t@x.org", *v.TeacherEmail)
	assert.False(t, v.Returned)
	assert.Equal(t, int64(1), v.Version)
	assert.True(t, day0.Equal(v.BookingDateTime))
	assert.False(t, f.available(t, lp.ID))

	open, err := f.svc.ListOpen(f.ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, v.ID, open[0].ID)

	detail, err := f.reg.GetStudent(f.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, detail.Bookings, 1)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "t@x.org", f.notifier.sent[0].to)
}

func TestCreateResolvesKeysIgnoringCase(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.laptop(t, "SN-001")
	f.teacher(t, "t@x.org")

	in := input("  ALICE ", "sn-001")
	in.TeacherEmail = "T@X.ORG"
	v, err := f.svc.Create(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "alice", v.StudentUsername)
	assert.Equal(t, "SN-001", v.Laptop.IdentificationNumber)
	assert.Equal(t, "t@x.org", *v.TeacherEmail)
}

func TestCreateWithUnknownKeys(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*lending.BookingInput)
		field string
	}{
		{"student", func(in *lending.BookingInput) { in.StudentUsername = "ghost" }, lending.FieldStudentUsername},
		{"laptop", func(in *lending.BookingInput) { in.LaptopIdentificationNumber = "SN-404" }, lending.FieldLaptopIdentificationNumber},
		{"teacher", func(in *lending.BookingInput) { in.TeacherEmail = "nobody@x.org" }, lending.FieldTeacherEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, lending.Options{})
			f.student(t, "alice")
			lp := f.laptop(t, "SN-001")

			in := input("alice", "SN-001")
			tt.mod(&in)
			_, err := f.svc.Create(f.ctx, in)

			var ve *lending.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)

			// 失败不留痕迹
			all, err := f.svc.List(f.ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.True(t, f.available(t, lp.ID))
			assert.Empty(t, f.notifier.sent)
		})
	}
}

func TestCreateAutoCreatesStudent(t *testing.T) {
	f := newFixture(t, lending.Options{AutoCreateStudents: true})
	f.laptop(t, "SN-001")

	v, err := f.svc.Create(f.ctx, input("newbie", "SN-001"))
	require.NoError(t, err)
	assert.Equal(t, "newbie", v.StudentUsername)

	ss, err := f.reg.ListStudents(f.ctx, "")
	require.NoError(t, err)
	require.Len(t, ss, 1)
	assert.Equal(t, "newbie", ss[0].Username)
	assert.Nil(t, ss[0].FirstName)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.laptop(t, "SN-001")

	tests := []struct {
		name  string
		mod   func(*lending.BookingInput)
		field string
	}{
		{"blank student", func(in *lending.BookingInput) { in.StudentUsername = "   " }, lending.FieldStudentUsername},
		{"missing laptop", func(in *lending.BookingInput) { in.LaptopIdentificationNumber = "" }, lending.FieldLaptopIdentificationNumber},
		{"bad teacher email", func(in *lending.BookingInput) { in.TeacherEmail = "nope" }, lending.FieldTeacherEmail},
		{"missing planned return", func(in *lending.BookingInput) { in.PlannedReturn = time.Time{} }, lending.FieldPlannedReturn},
		{"return before booking", func(in *lending.BookingInput) { in.PlannedReturn = day0.Add(-time.Hour) }, lending.FieldPlannedReturn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input("alice", "SN-001")
			tt.mod(&in)
			_, err := f.svc.Create(f.ctx, in)
			var ve *lending.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreateRejectsLaptopAlreadyOut(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.student(t, "bob")
	f.laptop(t, "SN-001")
	f.book(t, "alice", "SN-001")

	_, err := f.svc.Create(f.ctx, input("bob", "SN-001"))
	var ve *lending.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, lending.FieldLaptopIdentificationNumber, ve.Field)

	open, err := f.svc.ListOpen(f.ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestCreateClosedBookingKeepsAvailability(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	lp := f.laptop(t, "SN-001")

	in := input("alice", "SN-001")
	in.Returned = true
	v, err := f.svc.Create(f.ctx, in)
	require.NoError(t, err)
	assert.True(t, v.Returned)
	assert.True(t, f.available(t, lp.ID))

	// 历史记录不占用电脑
	f.student(t, "bob")
	f.book(t, "bob", "SN-001")
	assert.False(t, f.available(t, lp.ID))
}

func TestReturnFreesLaptop(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	lp := f.laptop(t, "SN-001")
	f.teacher(t, "t@x.org")
	in := input("alice", "SN-001")
	in.TeacherEmail = "t@x.org"
	b, err := f.svc.Create(f.ctx, in)
	require.NoError(t, err)

	v, err := f.svc.Return(f.ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, v.Returned)
	assert.True(t, v.Laptop.IsAvailable)
	assert.Equal(t, int64(2), v.Version)
	assert.True(t, f.available(t, lp.ID))

	closed, err := f.svc.ListClosed(f.ctx)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, "Rückgabe des Notebooks", f.notifier.sent[1].subject)

	// 幂等：再次归还不改版本、不再发邮件
	again, err := f.svc.Return(f.ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, again.Returned)
	assert.Equal(t, int64(2), again.Version)
	assert.Len(t, f.notifier.sent, 2)
}

func TestReturnUnknownBooking(t *testing.T) {
	f := newFixture(t, lending.Options{})
	_, err := f.svc.Return(f.ctx, 42)
	assert.ErrorIs(t, err, lending.ErrNotFound)
}

func TestUpdateReplacesFields(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.student(t, "bob")
	f.laptop(t, "SN-001")
	b := f.book(t, "alice", "SN-001")

	comment := "charger missing"
	in := input("bob", "SN-001")
	in.ID = b.ID
	in.Comment = &comment
	in.PlannedReturn = day7.Add(24 * time.Hour)
	v, err := f.svc.Update(f.ctx, b.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "bob", v.StudentUsername)
	require.NotNil(t, v.Comment)
	assert.Equal(t, comment, *v.Comment)
	assert.Equal(t, int64(2), v.Version)
	assert.Nil(t, v.TeacherEmail)
}

func TestUpdateWithStaleVersionConflicts(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.laptop(t, "SN-001")
	b := f.book(t, "alice", "SN-001")

	first := input("alice", "SN-001")
	first.Version = b.Version
	_, err := f.svc.Update(f.ctx, b.ID, first)
	require.NoError(t, err)

	stale := input("alice", "SN-001")
	stale.Version = b.Version
	c := "late edit"
	stale.Comment = &c
	_, err = f.svc.Update(f.ctx, b.ID, stale)

	var ce *lending.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, lending.EntityBooking, ce.Entity)
	assert.Equal(t, b.ID, ce.ID)

	got, err := f.svc.Get(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Comment)
}

func TestUpdateRejectsMismatchedID(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.laptop(t, "SN-001")
	b := f.book(t, "alice", "SN-001")

	in := input("alice", "SN-001")
	in.ID = b.ID + 1
	_, err := f.svc.Update(f.ctx, b.ID, in)
	var ve *lending.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, lending.FieldID, ve.Field)
}

func TestUpdateUnknownBooking(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.laptop(t, "SN-001")

	_, err := f.svc.Update(f.ctx, 77, input("alice", "SN-001"))
	assert.ErrorIs(t, err, lending.ErrNotFound)
}

func TestUpdateCannotReopenOntoBusyLaptop(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.student(t, "bob")
	f.laptop(t, "SN-001")
	f.laptop(t, "SN-002")
	f.book(t, "alice", "SN-001")
	b := f.book(t, "bob", "SN-002")

	_, err := f.svc.Update(f.ctx, b.ID, input("bob", "SN-001"))
	var ve *lending.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, lending.FieldLaptopIdentificationNumber, ve.Field)
}

func TestDeleteLeavesAvailabilityToReconcile(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	lp := f.laptop(t, "SN-001")
	b := f.book(t, "alice", "SN-001")

	removed, err := f.svc.Delete(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, lp.ID, removed.Laptop.ID)
	assert.False(t, f.available(t, lp.ID))

	_, err = f.svc.Get(f.ctx, b.ID)
	assert.ErrorIs(t, err, lending.ErrNotFound)

	available, err := f.svc.Ledger().Reconcile(f.ctx, lp.ID)
	require.NoError(t, err)
	assert.True(t, available)
	assert.True(t, f.available(t, lp.ID))

	_, err = f.svc.Delete(f.ctx, b.ID)
	assert.ErrorIs(t, err, lending.ErrNotFound)
}

func TestListQueries(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.student(t, "bob")
	a := f.laptop(t, "SN-001")
	f.laptop(t, "SN-002")

	older := f.book(t, "alice", "SN-001")
	_, err := f.svc.Return(f.ctx, older.ID)
	require.NoError(t, err)

	in := input("alice", "SN-002")
	in.BookingDateTime = day0.Add(time.Hour)
	newer, err := f.svc.Create(f.ctx, in)
	require.NoError(t, err)

	in = input("bob", "SN-001")
	in.BookingDateTime = day0.Add(2 * time.Hour)
	newest, err := f.svc.Create(f.ctx, in)
	require.NoError(t, err)

	ids := func(vs []lending.BookingView) []uint {
		out := make([]uint, 0, len(vs))
		for _, v := range vs {
			out = append(out, v.ID)
		}
		return out
	}

	all, err := f.svc.List(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{newest.ID, newer.ID, older.ID}, ids(all))

	open, err := f.svc.ListOpen(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{newest.ID, newer.ID}, ids(open))

	closed, err := f.svc.ListClosed(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{older.ID}, ids(closed))

	byStudent, err := f.svc.ListByStudent(f.ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, []uint{newer.ID, older.ID}, ids(byStudent))

	byLaptop, err := f.svc.ListByLaptop(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{newest.ID, older.ID}, ids(byLaptop))

	_, err = f.svc.ListByStudent(f.ctx, "ghost")
	assert.ErrorIs(t, err, lending.ErrNotFound)
	_, err = f.svc.ListByLaptop(f.ctx, 999)
	assert.ErrorIs(t, err, lending.ErrNotFound)
}

func TestListOverdue(t *testing.T) {
	f := newFixture(t, lending.Options{})
	f.student(t, "alice")
	f.laptop(t, "SN-001")
	f.laptop(t, "SN-002")
	f.laptop(t, "SN-003")

	late := f.book(t, "alice", "SN-001")

	notDue := input("alice", "SN-002")
	notDue.PlannedReturn = day7.Add(30 * 24 * time.Hour)
	_, err := f.svc.Create(f.ctx, notDue)
	require.NoError(t, err)

	// 同样过期，但已归还
	back := f.book(t, "alice", "SN-003")
	_, err = f.svc.Return(f.ctx, back.ID)
	require.NoError(t, err)

	overdue, err := f.svc.ListOverdue(f.ctx, day7.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
}

func TestNotificationFailureDoesNotFailCreate(t *testing.T) {
	n := &recordingNotifier{err: errors.New("smtp down")}
	f := newFixture(t, lending.Options{Notifier: n})
	f.student(t, "alice")
	lp := f.laptop(t, "SN-001")
	f.teacher(t, "t@x.org")

	in := input("alice", "SN-001")
	in.TeacherEmail = "t@x.org"
	_, err := f.svc.Create(f.ctx, in)
	require.NoError(t, err)
	assert.False(t, f.available(t, lp.ID))
}
