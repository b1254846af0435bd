package domain

import (
	"context"
	"time"
)

// EventFormat is how an event is held.
type EventFormat string

const (
	EventFormatInPerson EventFormat = "in_person"
	EventFormatOnline   EventFormat = "online"
	EventFormatHybrid   EventFormat = "hybrid"
)

// Valid reports whether f is a known format.
func (f EventFormat) Valid() bool {
	switch f {
	case EventFormatInPerson, EventFormatOnline, EventFormatHybrid:
		return true
	}
	return false
}

// Event represents a scheduled corporate event.
// Capacity fields are fixed when the event is edited; registration only reads them.
// swagger:model Event
type Event struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Date              time.Time   `json:"date"`
	StartTime         string      `json:"start_time"`
	EndTime           string      `json:"end_time"`
	Format            EventFormat `json:"format"`
	VacancyTotal      int         `json:"vacancy_total"`
	VacancyOnline     int         `json:"vacancy_online"`
	VacanciesPerBrand int         `json:"vacancies_per_brand"`
	FreeOnline        bool        `json:"free_online"`
	Published         bool        `json:"published"`
	Address           *string     `json:"address,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// CutoffPolicy decides the instant after which an event no longer accepts registrations.
type CutoffPolicy string

const (
	// CutoffEventDate closes registration at 00:00 of the event day.
	CutoffEventDate CutoffPolicy = "event_date"
	// CutoffEventStart closes registration at the event's start time on the event day.
	CutoffEventStart CutoffPolicy = "event_start"
)

// RegistrationDeadline returns the cutoff instant for the event in loc.
// Only the calendar day of e.Date is used. With CutoffEventStart an empty or
// malformed StartTime ("15:04") falls back to midnight.
func (e *Event) RegistrationDeadline(policy CutoffPolicy, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := e.Date.Date()
	deadline := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if policy != CutoffEventStart || e.StartTime == "" {
		return deadline
	}
	start, err := time.Parse("15:04", e.StartTime)
	if err != nil {
		return deadline
	}
	return deadline.Add(time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute)
}

// Availability is the number of seats still open per pool.
type Availability struct {
	PresentialRemaining int `json:"presential_remaining"`
	OnlineRemaining     int `json:"online_remaining"`
}

// EventWithAvailability bundles an event with its live availability.
type EventWithAvailability struct {
	Event        *Event       `json:"event"`
	Availability Availability `json:"availability"`
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListPublished(ctx context.Context, params PaginationParams) ([]*Event, int, error)
}

// EventService defines event listing and administration.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetPublishedEvent(ctx context.Context, id string) (*EventWithAvailability, error)
	ListPublishedEvents(ctx context.Context, params PaginationParams) ([]*EventWithAvailability, int, error)
}
