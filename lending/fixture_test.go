package lending_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"itlend/db"
	"itlend/db/dbtest"
	"itlend/lending"
	"itlend/models"

	"github.com/stretchr/testify/require"
)

var (
	day0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day7 = day0.Add(7 * 24 * time.Hour)
)

type sentMail struct {
	to, subject, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{to, subject, body})
	return nil
}

type fixture struct {
	ctx      context.Context
	repo     *db.Repo
	svc      *lending.Service
	reg      *lending.Registry
	notifier *recordingNotifier
}

func newFixture(t *testing.T, opts lending.Options) *fixture {
	t.Helper()
	repo := dbtest.New(t)
	n := &recordingNotifier{}
	if opts.Notifier == nil {
		opts.Notifier = n
	}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := lending.New(repo, opts)
	return &fixture{
		ctx:      context.Background(),
		repo:     repo,
		svc:      svc,
		reg:      lending.NewRegistry(repo, svc.Ledger()),
		notifier: n,
	}
}

func (f *fixture) student(t *testing.T, username string) *models.Student {
	t.Helper()
	s, err := f.reg.CreateStudent(f.ctx, lending.StudentInput{Username: username})
	require.NoError(t, err)
	return s
}

func (f *fixture) laptop(t *testing.T, id string) *models.Laptop {
	t.Helper()
	l, err := f.reg.CreateLaptop(f.ctx, lending.LaptopInput{IdentificationNumber: id, Model: "ThinkPad X1"})
	require.NoError(t, err)
	return l
}

func (f *fixture) teacher(t *testing.T, email string) *models.Teacher {
	t.Helper()
	tc, err := f.reg.CreateTeacher(f.ctx, lending.TeacherInput{Email: email})
	require.NoError(t, err)
	return tc
}

func (f *fixture) available(t *testing.T, laptopID uint) bool {
	t.Helper()
	ok, err := f.svc.Ledger().IsAvailable(f.ctx, laptopID)
	require.NoError(t, err)
	return ok
}

func (f *fixture) book(t *testing.T, student, laptop string) *lending.BookingView {
	t.Helper()
	v, err := f.svc.Create(f.ctx, input(student, laptop))
	require.NoError(t, err)
	return v
}

func input(student, laptop string) lending.BookingInput {
	return lending.BookingInput{
		StudentUsername:            student,
		LaptopIdentificationNumber: laptop,
		BookingDateTime:            day0,
		PlannedReturn:              day7,
	}
}
