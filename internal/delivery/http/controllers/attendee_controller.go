package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"corporateevents/internal/delivery/http/helpers"
	"corporateevents/internal/delivery/http/middleware"
	"corporateevents/internal/domain"
)

// Registration result statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// RegistrationResult is the data of every POST /attendee/registrations response.
// Input echoes the normalized submission on validation errors so the form can be repopulated.
type RegistrationResult struct {
	Status     string                    `json:"status"`
	Message    string                    `json:"message"`
	Reason     string                    `json:"reason,omitempty"`
	Attendance *domain.Attendance        `json:"attendance,omitempty"`
	Fields     map[string][]string       `json:"fields,omitempty"`
	Input      *domain.RegistrationInput `json:"input,omitempty"`
}

// RegistrationResponse is the response envelope for POST /attendee/registrations.
type RegistrationResponse struct {
	Data  RegistrationResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// MyRegistrationsSuccessResponse is the success response envelope for GET /attendee/registrations.
type MyRegistrationsSuccessResponse struct {
	Data  []*domain.AttendanceWithEvent `json:"data"`
	Error *helpers.APIError             `json:"error"`
}

type AttendeeController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewAttendeeController(logger *slog.Logger, svc domain.RegistrationService) *AttendeeController {
	return &AttendeeController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Registers an attendee for an event on behalf of the authenticated user. Accepts a JSON body or a url-encoded/multipart form with the same field names. Capacity, per-company limits and duplicates are checked atomically per event.
// @Tags attendee
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param body body domain.RegistrationInput true "Registration form"
// @Success 201 {object} controllers.RegistrationResponse "data.status SUCCESS"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} controllers.RegistrationResponse "error.code: unauthorized"
// @Failure 404 {object} controllers.RegistrationResponse "error.code: not_found"
// @Failure 409 {object} controllers.RegistrationResponse "error.code: conflict (event over, no seats, already registered)"
// @Failure 422 {object} controllers.RegistrationResponse "error.code: unprocessable_entity with data.fields"
// @Failure 500 {object} controllers.RegistrationResponse "error.code: internal_error"
// @Router /attendee/registrations [post]
func (c *AttendeeController) Register(w http.ResponseWriter, r *http.Request) {
	input, err := decodeRegistrationInput(w, r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	// A missing actor is reported by the service as unauthenticated.
	actor, _ := middleware.ActorFromContext(r.Context())

	attendance, err := c.Service.Register(r.Context(), actor, input)
	if err == nil {
		helpers.WriteJSONSuccess(w, http.StatusCreated, RegistrationResult{
			Status:     StatusSuccess,
			Message:    domain.RegistrationConfirmedMessage,
			Attendance: attendance,
		})
		return
	}

	var regErr *domain.RegistrationError
	if !errors.As(err, &regErr) {
		writeInternalError(c.Logger, w, r, err)
		return
	}
	status, code := registrationStatus(regErr.Kind)
	result := RegistrationResult{
		Status:  StatusError,
		Message: regErr.Message,
		Reason:  regErr.Reason,
		Fields:  regErr.FieldErrors,
	}
	if regErr.Kind == domain.RegistrationInvalid {
		result.Input = input
	}
	helpers.WriteJSON(w, status, result, &helpers.APIError{
		Code:    code,
		Message: regErr.Message,
		Fields:  regErr.FieldErrors,
	})
}

func registrationStatus(kind domain.RegistrationErrorKind) (int, string) {
	switch kind {
	case domain.RegistrationUnauthenticated:
		return http.StatusUnauthorized, helpers.ErrCodeUnauthorized
	case domain.RegistrationInvalid:
		return http.StatusUnprocessableEntity, helpers.ErrCodeUnprocessable
	case domain.RegistrationNotFound:
		return http.StatusNotFound, helpers.ErrCodeNotFound
	case domain.RegistrationTemporal, domain.RegistrationCapacity, domain.RegistrationDuplicate:
		return http.StatusConflict, helpers.ErrCodeConflict
	default:
		return http.StatusInternalServerError, helpers.ErrCodeInternalError
	}
}

// decodeRegistrationInput reads the form from a JSON body or from form values,
// depending on Content-Type. JSON is the default.
func decodeRegistrationInput(w http.ResponseWriter, r *http.Request) (*domain.RegistrationInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	r.Body = http.MaxBytesReader(w, r.Body, helpers.MaxBodyBytes)

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, errors.New("invalid form body")
		}
		return registrationInputFromForm(r.PostForm), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(helpers.MaxBodyBytes); err != nil {
			return nil, errors.New("invalid form body")
		}
		return registrationInputFromForm(r.PostForm), nil
	default:
		var in domain.RegistrationInput
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return nil, errors.New("invalid JSON body: " + err.Error())
		}
		return &in, nil
	}
}

func registrationInputFromForm(v url.Values) *domain.RegistrationInput {
	return &domain.RegistrationInput{
		EventID:          v.Get("eventId"),
		UserID:           v.Get("userId"),
		CompanyCNPJ:      v.Get("company_cnpj"),
		CompanySegment:   v.Get("company_segment"),
		AttendeeFullName: v.Get("attendee_full_name"),
		AttendeeEmail:    v.Get("attendee_email"),
		AttendeePosition: v.Get("attendee_position"),
		AttendeeRG:       v.Get("attendee_rg"),
		AttendeeCPF:      v.Get("attendee_cpf"),
		MobilePhone:      v.Get("mobile_phone"),
		AttendeeType:     v.Get("attendee_type"),
		ParticipantType:  v.Get("participant_type"),
	}
}

// ListMyRegistrations godoc
// @Summary List my registrations
// @Description Returns the authenticated user's registrations with their events.
// @Tags attendee
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MyRegistrationsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /attendee/registrations [get]
func (c *AttendeeController) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	items, err := c.Service.ListMyRegistrations(r.Context(), actor.UserID)
	if err != nil {
		writeInternalError(c.Logger, w, r, err)
		return
	}
	if items == nil {
		items = []*domain.AttendanceWithEvent{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, items)
}
