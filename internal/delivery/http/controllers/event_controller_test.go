package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"corporateevents/internal/delivery/http/helpers"
	"corporateevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const testEventID = "0b6f3a36-8f55-4a52-9d39-5d2c1d0f4a11"

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createErr  error
	lastCreate *domain.Event
	getResult  *domain.EventWithAvailability
	getErr     error
	lastGetID  string
	listResult []*domain.EventWithAvailability
	listTotal  int
	listErr    error
	lastParams domain.PaginationParams
}

func (f *fakeEventService) CreateEvent(_ context.Context, event *domain.Event) error {
	f.lastCreate = event
	if f.createErr != nil {
		return f.createErr
	}
	event.ID = testEventID
	return nil
}

func (f *fakeEventService) GetPublishedEvent(_ context.Context, id string) (*domain.EventWithAvailability, error) {
	f.lastGetID = id
	return f.getResult, f.getErr
}

func (f *fakeEventService) ListPublishedEvents(_ context.Context, params domain.PaginationParams) ([]*domain.EventWithAvailability, int, error) {
	f.lastParams = params
	return f.listResult, f.listTotal, f.listErr
}

func TestEventController_ListEvents(t *testing.T) {
	fake := &fakeEventService{
		listResult: []*domain.EventWithAvailability{
			{Event: &domain.Event{ID: testEventID, Title: "Encontro"}, Availability: domain.Availability{PresentialRemaining: 3, OnlineRemaining: 10}},
		},
		listTotal: 21,
	}
	ctrl := NewEventController(testLogger, fake, time.UTC)
	req := httptest.NewRequest(http.MethodGet, "http://test/events?page=2&page_size=10", nil)
	rr := httptest.NewRecorder()

	ctrl.ListEvents(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.PaginationParams{Page: 2, PageSize: 10}, fake.lastParams)
	var data ListEventsData
	decodeData(t, decodeEnvelope(t, rr), &data)
	require.Len(t, data.Items, 1)
	assert.Equal(t, 3, data.Items[0].Availability.PresentialRemaining)
	assert.Equal(t, helpers.PaginationMeta{Page: 2, PageSize: 10, Total: 21, TotalPages: 3, HasNext: true}, data.Pagination)
}

func TestEventController_ListEvents_emptyAndError(t *testing.T) {
	ctrl := NewEventController(testLogger, &fakeEventService{}, nil)
	rr := httptest.NewRecorder()
	ctrl.ListEvents(rr, httptest.NewRequest(http.MethodGet, "http://test/events", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"items":[]`)

	ctrl = NewEventController(testLogger, &fakeEventService{listErr: assert.AnError}, nil)
	rr = httptest.NewRecorder()
	ctrl.ListEvents(rr, httptest.NewRequest(http.MethodGet, "http://test/events", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestEventController_GetEvent(t *testing.T) {
	tests := []struct {
		name       string
		eventID    string
		fake       *fakeEventService
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			eventID:    testEventID,
			fake:       &fakeEventService{getResult: &domain.EventWithAvailability{Event: &domain.Event{ID: testEventID}}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not a uuid",
			eventID:    "nope",
			fake:       &fakeEventService{},
			wantStatus: http.StatusNotFound,
			wantCode:   helpers.ErrCodeNotFound,
		},
		{
			name:       "not found",
			eventID:    testEventID,
			fake:       &fakeEventService{getErr: domain.ErrNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   helpers.ErrCodeNotFound,
		},
		{
			name:       "service error",
			eventID:    testEventID,
			fake:       &fakeEventService{getErr: assert.AnError},
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger, tt.fake, time.UTC)
			req := httptest.NewRequest(http.MethodGet, "http://test/events/"+tt.eventID, nil)
			req.SetPathValue("eventID", tt.eventID)
			rr := httptest.NewRecorder()

			ctrl.GetEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				return
			}
			assert.Equal(t, tt.eventID, tt.fake.lastGetID)
		})
	}
}

func createEventBody(mutate func(m map[string]any)) string {
	m := map[string]any{
		"title":               "Encontro Anual",
		"date":                "2026-03-20",
		"start_time":          "09:00",
		"end_time":            "18:00",
		"format":              "hybrid",
		"vacancy_total":       50,
		"vacancy_online":      100,
		"vacancies_per_brand": 10,
		"free_online":         true,
		"published":           true,
	}
	if mutate != nil {
		mutate(m)
	}
	b, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func TestEventController_CreateEvent(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{name: "success", body: createEventBody(nil), wantStatus: http.StatusCreated},
		{
			name:       "negative vacancies",
			body:       createEventBody(func(m map[string]any) { m["vacancy_total"] = -1 }),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   helpers.ErrCodeUnprocessable,
			wantField:  "vacancy_total",
		},
		{
			name:       "unknown format",
			body:       createEventBody(func(m map[string]any) { m["format"] = "hologram" }),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   helpers.ErrCodeUnprocessable,
			wantField:  "format",
		},
		{
			name:       "bad date",
			body:       createEventBody(func(m map[string]any) { m["date"] = "20/03/2026" }),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   helpers.ErrCodeUnprocessable,
			wantField:  "date",
		},
		{
			name:       "service rejects",
			body:       createEventBody(func(m map[string]any) { m["end_time"] = "08:00" }),
			createErr:  fmt.Errorf("%w: end_time must be after start_time", domain.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "service error",
			body:       createEventBody(nil),
			createErr:  assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{createErr: tt.createErr}
			ctrl := NewEventController(testLogger, fake, loc)
			req := httptest.NewRequest(http.MethodPost, "http://test/admin/events", bytes.NewBufferString(tt.body))
			req = withActor(req, "admin-1", domain.RoleAdmin)
			rr := httptest.NewRecorder()

			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			envelope := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				if tt.wantField != "" {
					assert.Contains(t, envelope.Error.Fields, tt.wantField)
				}
				return
			}
			require.NotNil(t, fake.lastCreate)
			assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, loc), fake.lastCreate.Date)
			assert.Equal(t, domain.EventFormatHybrid, fake.lastCreate.Format)
			var got domain.EventWithAvailability
			decodeData(t, envelope, &got)
			assert.Equal(t, testEventID, got.Event.ID)
			assert.Equal(t, 50, got.Availability.PresentialRemaining)
		})
	}
}
