package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"corporateevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	notified []*domain.Attendance
	err      error
}

func (n *fakeNotifier) NotifyRegistration(ctx context.Context, e *domain.Event, a *domain.Attendance) error {
	if n.err != nil {
		return n.err
	}
	n.notified = append(n.notified, a)
	return nil
}

func registrationTask(t *testing.T, kind domain.TaskKind) *domain.Task {
	t.Helper()
	ev := testEvent()
	addr := "Av. Paulista, 1000"
	ev.Address = &addr
	task, err := domain.NewTask(kind, domain.RegistrationTaskPayload{
		Event: ev,
		Attendance: &domain.Attendance{
			ID: "att-1", EventID: ev.ID, AttendeeEmail: "maria@example.com",
			AttendeeFullName: "Maria Souza", AttendeeType: domain.AttendeeOnline,
		},
	}, testNow)
	require.NoError(t, err)
	return task
}

func TestRegistrationTaskHandler_confirmation(t *testing.T) {
	emails := &fakeEmailService{}
	h := NewRegistrationTaskHandler(emails, &fakeNotifier{}, time.UTC, discardLogger())

	require.NoError(t, h.Handle(context.Background(), registrationTask(t, domain.TaskRegistrationConfirmation)))
	require.Len(t, emails.confirmations, 1)
	got := emails.confirmations[0]
	assert.Equal(t, "maria@example.com", got.Email)
	assert.Equal(t, "Maria Souza", got.FullName)
	assert.Equal(t, "20/03/2026", got.EventDate)
	assert.Equal(t, "Av. Paulista, 1000", got.Address)
	assert.True(t, got.Online())
}

func TestRegistrationTaskHandler_organizerNotice(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewRegistrationTaskHandler(&fakeEmailService{}, notifier, nil, discardLogger())

	require.NoError(t, h.Handle(context.Background(), registrationTask(t, domain.TaskOrganizerNotice)))
	require.Len(t, notifier.notified, 1)
	assert.Equal(t, "att-1", notifier.notified[0].ID)
}

func TestRegistrationTaskHandler_failuresAreRetryable(t *testing.T) {
	h := NewRegistrationTaskHandler(&fakeEmailService{err: errors.New("ses down")}, &fakeNotifier{err: errors.New("discord down")}, nil, discardLogger())

	assert.Error(t, h.Handle(context.Background(), registrationTask(t, domain.TaskRegistrationConfirmation)))
	assert.Error(t, h.Handle(context.Background(), registrationTask(t, domain.TaskOrganizerNotice)))
}

func TestRegistrationTaskHandler_dropsUnusableTasks(t *testing.T) {
	h := NewRegistrationTaskHandler(&fakeEmailService{}, &fakeNotifier{}, nil, discardLogger())
	ctx := context.Background()

	assert.NoError(t, h.Handle(ctx, &domain.Task{ID: "t1", Kind: domain.TaskOrganizerNotice, Payload: []byte("{")}))
	assert.NoError(t, h.Handle(ctx, &domain.Task{ID: "t2", Kind: domain.TaskOrganizerNotice, Payload: []byte("{}")}))
	assert.NoError(t, h.Handle(ctx, registrationTask(t, "unknown.kind")))
}
