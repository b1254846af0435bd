package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"corporateevents/internal/delivery/http/helpers"
	"corporateevents/internal/domain"
)

// dateLayout is the calendar date format accepted for event dates.
const dateLayout = "2006-01-02"

// CreateEventRequest is the request body for POST /admin/events.
type CreateEventRequest struct {
	Title             string  `json:"title" validate:"required,max=200"`
	Description       string  `json:"description" validate:"max=5000"`
	Date              string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime         string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime           string  `json:"end_time" validate:"required,datetime=15:04"`
	Format            string  `json:"format" validate:"required,oneof=in_person online hybrid"`
	VacancyTotal      int     `json:"vacancy_total" validate:"gte=0"`
	VacancyOnline     int     `json:"vacancy_online" validate:"gte=0"`
	VacanciesPerBrand int     `json:"vacancies_per_brand" validate:"gte=0"`
	FreeOnline        bool    `json:"free_online"`
	Published         bool    `json:"published"`
	Address           *string `json:"address" validate:"omitempty,max=500"`
}

func (req *CreateEventRequest) toEvent(loc *time.Location) (*domain.Event, error) {
	date, err := time.ParseInLocation(dateLayout, req.Date, loc)
	if err != nil {
		return nil, err
	}
	return &domain.Event{
		Title:             req.Title,
		Description:       strings.TrimSpace(req.Description),
		Date:              date,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Format:            domain.EventFormat(req.Format),
		VacancyTotal:      req.VacancyTotal,
		VacancyOnline:     req.VacancyOnline,
		VacanciesPerBrand: req.VacanciesPerBrand,
		FreeOnline:        req.FreeOnline,
		Published:         req.Published,
		Address:           req.Address,
	}, nil
}

// EventSuccessResponse is the success response envelope for a single event with availability.
type EventSuccessResponse struct {
	Data  *domain.EventWithAvailability `json:"data"`
	Error *helpers.APIError             `json:"error"`
}

// ListEventsData is the data of GET /events.
type ListEventsData struct {
	Items      []*domain.EventWithAvailability `json:"items"`
	Pagination helpers.PaginationMeta          `json:"pagination"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events.
type ListEventsSuccessResponse struct {
	Data  ListEventsData    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventController serves the public event catalog and event administration.
type EventController struct {
	Logger   *slog.Logger
	Service  domain.EventService
	Location *time.Location
}

// NewEventController creates an EventController. Event dates in requests are read in loc.
func NewEventController(logger *slog.Logger, svc domain.EventService, loc *time.Location) *EventController {
	if loc == nil {
		loc = time.UTC
	}
	return &EventController{
		Logger:   logger,
		Service:  svc,
		Location: loc,
	}
}

// ListEvents godoc
// @Summary List published events
// @Description Paginated list of published events ordered by date, each with its remaining in-person and online seats.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListPublishedEvents(r.Context(), params)
	if err != nil {
		writeInternalError(c.Logger, w, r, err)
		return
	}
	if events == nil {
		events = []*domain.EventWithAvailability{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsData{
		Items:      events,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetEvent godoc
// @Summary Get a published event
// @Description Returns one published event with its remaining seats. Unpublished events are reported as not found.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if _, err := uuid.Parse(eventID); err != nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		return
	}
	event, err := c.Service.GetPublishedEvent(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		writeInternalError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event with its capacity settings. Requires the admin role.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable_entity"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := req.toEvent(c.Location)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid date")
		return
	}
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		writeInternalError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, &domain.EventWithAvailability{
		Event: event,
		Availability: domain.Availability{
			PresentialRemaining: event.VacancyTotal,
			OnlineRemaining:     event.VacancyOnline,
		},
	})
}
