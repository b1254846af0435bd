package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"corporateevents/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	attendanceRepo domain.AttendanceRepository
	audit          domain.AuditLogger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewEventService creates an EventService. Availability is computed from live attendance counts.
func NewEventService(eventRepo domain.EventRepository,
	attendanceRepo domain.AttendanceRepository,
	audit domain.AuditLogger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		attendanceRepo: attendanceRepo,
		audit:          audit,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validateEvent(event); err != nil {
		return err
	}
	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	s.audit.Info(ctx, "event", "Evento criado", "", map[string]any{"event_id": event.ID, "title": event.Title})
	return nil
}

func validateEvent(e *domain.Event) error {
	if e == nil {
		return fmt.Errorf("%w: event is required", domain.ErrInvalidInput)
	}
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}
	if !e.Format.Valid() {
		return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, e.Format)
	}
	if e.VacancyTotal < 0 || e.VacancyOnline < 0 || e.VacanciesPerBrand < 0 {
		return fmt.Errorf("%w: vacancies must not be negative", domain.ErrInvalidInput)
	}
	start, err := time.Parse("15:04", e.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start_time must be HH:MM", domain.ErrInvalidInput)
	}
	end, err := time.Parse("15:04", e.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end_time must be HH:MM", domain.ErrInvalidInput)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end_time must be after start_time", domain.ErrInvalidInput)
	}
	return nil
}

func (s *eventService) GetPublishedEvent(ctx context.Context, id string) (*domain.EventWithAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.Published {
		return nil, domain.ErrNotFound
	}
	avail, err := s.availability(ctx, event)
	if err != nil {
		return nil, err
	}
	return &domain.EventWithAvailability{Event: event, Availability: avail}, nil
}

func (s *eventService) ListPublishedEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.EventWithAvailability, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListPublished(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	out := make([]*domain.EventWithAvailability, 0, len(events))
	for _, e := range events {
		avail, err := s.availability(ctx, e)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, &domain.EventWithAvailability{Event: e, Availability: avail})
	}
	return out, total, nil
}

func (s *eventService) availability(ctx context.Context, e *domain.Event) (domain.Availability, error) {
	presential, err := s.attendanceRepo.CountByEventAndType(ctx, e.ID, domain.AttendeeInPerson)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("count presential: %w", err)
	}
	online, err := s.attendanceRepo.CountByEventAndType(ctx, e.ID, domain.AttendeeOnline)
	if err != nil {
		return domain.Availability{}, fmt.Errorf("count online: %w", err)
	}
	return domain.Availability{
		PresentialRemaining: max(0, e.VacancyTotal-presential),
		OnlineRemaining:     max(0, e.VacancyOnline-online),
	}, nil
}
