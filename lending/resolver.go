package lending

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"itlend/models"
)

const maxUsernameLen = 30

type StudentRef struct {
	ID       uint
	Username string
}

type LaptopRef struct {
	ID                   uint
	IdentificationNumber string
}

type TeacherRef struct {
	ID    uint
	Email string
}

// Resolver turns natural keys into entity references. All lookups are
// case-insensitive exact matches on trimmed input; an empty key never
// matches. A miss is reported by ok == false, never by an error.
type Resolver struct{}

func (Resolver) ResolveStudent(ctx context.Context, q Querier, username string) (StudentRef, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return StudentRef{}, false, nil
	}
	s, err := q.StudentByUsername(ctx, username)
	if err != nil || s == nil {
		return StudentRef{}, false, err
	}
	return StudentRef{ID: s.ID, Username: s.Username}, true, nil
}

func (Resolver) ResolveLaptop(ctx context.Context, q Querier, identificationNumber string) (LaptopRef, bool, error) {
	identificationNumber = strings.TrimSpace(identificationNumber)
	if identificationNumber == "" {
		return LaptopRef{}, false, nil
	}
	l, err := q.LaptopByIdentification(ctx, identificationNumber)
	if err != nil || l == nil {
		return LaptopRef{}, false, err
	}
	return LaptopRef{ID: l.ID, IdentificationNumber: l.IdentificationNumber}, true, nil
}

func (Resolver) ResolveTeacher(ctx context.Context, q Querier, email string) (TeacherRef, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return TeacherRef{}, false, nil
	}
	t, err := q.TeacherByEmail(ctx, email)
	if err != nil || t == nil {
		return TeacherRef{}, false, err
	}
	return TeacherRef{ID: t.ID, Email: t.Email}, true, nil
}

// ResolveOrCreateStudent finds the student or inserts a record holding only
// the username. created reports whether a row was inserted.
func (r Resolver) ResolveOrCreateStudent(ctx context.Context, q Querier, username string) (ref StudentRef, created bool, err error) {
	ref, ok, err := r.ResolveStudent(ctx, q, username)
	if err != nil || ok {
		return ref, false, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return StudentRef{}, false, &ValidationError{Field: FieldStudentUsername, Reason: "is required"}
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return StudentRef{}, false, &ValidationError{
			Field:  FieldStudentUsername,
			Reason: fmt.Sprintf("must be at most %d characters", maxUsernameLen),
		}
	}
	s := &models.Student{Username: username, Version: 1}
	if err := q.AddStudent(ctx, s); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			// 并发下别人刚建好，再查一次
			ref, ok, err := r.ResolveStudent(ctx, q, username)
			if err == nil && ok {
				return ref, false, nil
			}
		}
		return StudentRef{}, false, err
	}
	return StudentRef{ID: s.ID, Username: s.Username}, true, nil
}
