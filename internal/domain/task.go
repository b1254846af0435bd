package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskKind names a unit of deferred work.
type TaskKind string

const (
	// TaskRegistrationConfirmation sends the confirmation email to the registrant.
	TaskRegistrationConfirmation TaskKind = "registration.confirmation"
	// TaskOrganizerNotice tells the organizers' channel about a new registration.
	TaskOrganizerNotice TaskKind = "registration.organizer_notice"
)

// Task is deferred work executed after a registration has committed.
type Task struct {
	ID         string          `json:"id"`
	Kind       TaskKind        `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewTask marshals payload and returns a task with a fresh ID.
func NewTask(kind TaskKind, payload any, now time.Time) (*Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return &Task{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    raw,
		EnqueuedAt: now,
	}, nil
}

// RegistrationTaskPayload is the payload of both registration task kinds.
type RegistrationTaskPayload struct {
	Event      *Event      `json:"event"`
	Attendance *Attendance `json:"attendance"`
}

// TaskQueue accepts tasks for asynchronous execution with retries.
type TaskQueue interface {
	Enqueue(ctx context.Context, task *Task) error
}

// TaskHandler executes one task. A non-nil error makes the queue retry it.
type TaskHandler interface {
	Handle(ctx context.Context, task *Task) error
}

// OrganizerNotifier announces new registrations to event organizers.
type OrganizerNotifier interface {
	NotifyRegistration(ctx context.Context, event *Event, attendance *Attendance) error
}
