package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"corporateevents/internal/domain"
)

type registrationTaskHandler struct {
	emails   domain.EmailService
	notifier domain.OrganizerNotifier
	loc      *time.Location
	logger   *slog.Logger
}

// NewRegistrationTaskHandler returns the TaskHandler for the post-registration tasks.
// Dates in emails are rendered in loc.
func NewRegistrationTaskHandler(emails domain.EmailService, notifier domain.OrganizerNotifier, loc *time.Location, logger *slog.Logger) domain.TaskHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &registrationTaskHandler{emails: emails, notifier: notifier, loc: loc, logger: logger}
}

func (h *registrationTaskHandler) Handle(ctx context.Context, task *domain.Task) error {
	var p domain.RegistrationTaskPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		// Retrying cannot fix a bad payload.
		h.logger.ErrorContext(ctx, "dropping task with invalid payload", "task_id", task.ID, "kind", task.Kind, "err", err)
		return nil
	}
	if p.Event == nil || p.Attendance == nil {
		h.logger.ErrorContext(ctx, "dropping task with incomplete payload", "task_id", task.ID, "kind", task.Kind)
		return nil
	}

	switch task.Kind {
	case domain.TaskRegistrationConfirmation:
		if err := h.emails.SendRegistrationConfirmation(ctx, confirmationData(p.Event, p.Attendance, h.loc)); err != nil {
			return fmt.Errorf("send confirmation: %w", err)
		}
	case domain.TaskOrganizerNotice:
		if err := h.notifier.NotifyRegistration(ctx, p.Event, p.Attendance); err != nil {
			return fmt.Errorf("notify organizers: %w", err)
		}
	default:
		h.logger.WarnContext(ctx, "dropping task of unknown kind", "task_id", task.ID, "kind", task.Kind)
	}
	return nil
}

func confirmationData(e *domain.Event, a *domain.Attendance, loc *time.Location) *domain.RegistrationConfirmationEmailData {
	y, m, d := e.Date.Date()
	data := &domain.RegistrationConfirmationEmailData{
		Email:        a.AttendeeEmail,
		FullName:     a.AttendeeFullName,
		EventTitle:   e.Title,
		EventDate:    time.Date(y, m, d, 0, 0, 0, 0, loc).Format("02/01/2006"),
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		AttendeeType: a.AttendeeType,
	}
	if e.Address != nil {
		data.Address = *e.Address
	}
	return data
}
