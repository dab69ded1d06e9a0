package lending

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("concurrent modification")
	ErrInfrastructure = errors.New("infrastructure failure")
)

// Entity names used in NotFoundError and ConflictError.
const (
	EntityStudent = "student"
	EntityLaptop  = "laptop"
	EntityTeacher = "teacher"
	EntityBooking = "booking"
)

// Field names reported by ValidationError. They match the JSON names of the
// request bodies.
const (
	FieldID                         = "id"
	FieldStudentUsername            = "studentUsername"
	FieldLaptopIdentificationNumber = "laptopIdentificationNumber"
	FieldTeacherEmail               = "teacherEmail"
	FieldPlannedReturn              = "plannedReturn"
	FieldUsername                   = "username"
	FieldIdentificationNumber       = "identificationNumber"
	FieldEmail                      = "email"
)

// ValidationError reports input the caller can correct and resubmit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing entity addressed by id or natural key.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a write against a stale version. The caller should
// re-fetch and decide whether to retry.
type ConflictError struct {
	Entity string
	ID     uint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently", e.Entity, e.ID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InfrastructureError wraps a store failure. Its message never carries the
// underlying cause; use errors.Unwrap for logging.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return e.Op + ": " + ErrInfrastructure.Error()
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

func (e *InfrastructureError) Is(target error) bool { return target == ErrInfrastructure }

func notFound(entity string, id uint) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: strconv.FormatUint(uint64(id), 10)}
}

// infra passes domain errors through untouched and wraps everything else.
func infra(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConflictError
		ie *InfrastructureError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &ce) || errors.As(err, &ie) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}
