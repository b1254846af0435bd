package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and repositories.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateAttendance is returned when the database rejects an attendance as a duplicate.
	ErrDuplicateAttendance = errors.New("attendance already exists")
	// ErrQueueFull is returned by a TaskQueue that cannot accept more work right now.
	ErrQueueFull = errors.New("task queue is full")
)

// ValidationError carries per-field messages keyed by the JSON field name.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "invalid input"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Unique keys of an attendance within one event.
const (
	AttendanceKeyUser  = "user"
	AttendanceKeyEmail = "email"
	AttendanceKeyCPF   = "cpf"
	AttendanceKeyRG    = "rg"
)

// DuplicateAttendanceError names the unique key an insert collided with.
// It matches ErrDuplicateAttendance with errors.Is.
type DuplicateAttendanceError struct {
	Key string
}

func (e *DuplicateAttendanceError) Error() string {
	return fmt.Sprintf("attendance already exists (%s)", e.Key)
}

func (e *DuplicateAttendanceError) Is(target error) bool {
	return target == ErrDuplicateAttendance
}
