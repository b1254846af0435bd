package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// AttendeeType selects the capacity pool a registration counts against.
type AttendeeType string

const (
	AttendeeInPerson AttendeeType = "in_person"
	AttendeeOnline   AttendeeType = "online"
)

// DefaultParticipantType is stored when the form leaves participant_type empty.
const DefaultParticipantType = "participant"

// Attendance is one person's registration to one event.
// swagger:model Attendance
type Attendance struct {
	ID               string       `json:"id"`
	EventID          string       `json:"event_id"`
	UserID           string       `json:"user_id"`
	CompanyCNPJ      string       `json:"company_cnpj"`
	CompanySegment   string       `json:"company_segment"`
	AttendeeFullName string       `json:"attendee_full_name"`
	AttendeeEmail    string       `json:"attendee_email"`
	AttendeePosition string       `json:"attendee_position"`
	AttendeeRG       string       `json:"attendee_rg"`
	AttendeeCPF      string       `json:"attendee_cpf"`
	MobilePhone      string       `json:"mobile_phone"`
	AttendeeType     AttendeeType `json:"attendee_type"`
	ParticipantType  string       `json:"participant_type"`
	CheckedIn        bool         `json:"checked_in"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// AttendanceWithEvent bundles a registration with its related event.
type AttendanceWithEvent struct {
	Attendance *Attendance `json:"attendance"`
	Event      *Event      `json:"event"`
}

// AttendanceRepository defines storage operations for attendances.
type AttendanceRepository interface {
	CountByEventAndType(ctx context.Context, eventID string, attendeeType AttendeeType) (int, error)
	CountByEventCompanyAndType(ctx context.Context, eventID, companyCNPJ string, attendeeType AttendeeType) (int, error)
	// GetByEventAndUser returns ErrNotFound when the user has no attendance for the event.
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Attendance, error)
	// ListByEventAndIdentity returns every attendance of the event matching the email, CPF or RG.
	ListByEventAndIdentity(ctx context.Context, eventID, email, cpf, rg string) ([]*Attendance, error)
	Create(ctx context.Context, a *Attendance) error
	ListByUserID(ctx context.Context, userID string) ([]*Attendance, error)
	// WithEventLock runs fn in a transaction holding a row lock on the event, so
	// concurrent registrations for the same event are serialized. fn must use the
	// repository it receives. The transaction commits only if fn returns nil.
	WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, repo AttendanceRepository) error) error
}

// RegistrationInput is the submitted registration form. All values arrive as strings.
type RegistrationInput struct {
	EventID          string `json:"eventId" validate:"required,uuid"`
	UserID           string `json:"userId" validate:"omitempty,uuid"`
	CompanyCNPJ      string `json:"company_cnpj" validate:"omitempty,cnpj"`
	CompanySegment   string `json:"company_segment" validate:"required,max=120"`
	AttendeeFullName string `json:"attendee_full_name" validate:"required,max=200"`
	AttendeeEmail    string `json:"attendee_email" validate:"required,email,max=254"`
	AttendeePosition string `json:"attendee_position" validate:"required,max=120"`
	AttendeeRG       string `json:"attendee_rg" validate:"required,max=20"`
	AttendeeCPF      string `json:"attendee_cpf" validate:"required,cpf"`
	MobilePhone      string `json:"mobile_phone" validate:"required,min=10,max=13,numeric"`
	AttendeeType     string `json:"attendee_type" validate:"required,oneof=in_person online"`
	ParticipantType  string `json:"participant_type" validate:"omitempty,max=50"`
}

// Normalize trims every field, lowercases the email, keeps only digits in CPF,
// CNPJ and phone, uppercases the RG and defaults the participant type.
func (in *RegistrationInput) Normalize() {
	in.EventID = strings.TrimSpace(in.EventID)
	in.UserID = strings.TrimSpace(in.UserID)
	in.CompanyCNPJ = DigitsOnly(in.CompanyCNPJ)
	in.CompanySegment = strings.TrimSpace(in.CompanySegment)
	in.AttendeeFullName = strings.TrimSpace(in.AttendeeFullName)
	in.AttendeeEmail = strings.ToLower(strings.TrimSpace(in.AttendeeEmail))
	in.AttendeePosition = strings.TrimSpace(in.AttendeePosition)
	in.AttendeeRG = NormalizeRG(in.AttendeeRG)
	in.AttendeeCPF = DigitsOnly(in.AttendeeCPF)
	in.MobilePhone = DigitsOnly(in.MobilePhone)
	in.AttendeeType = strings.ToLower(strings.TrimSpace(in.AttendeeType))
	in.ParticipantType = strings.TrimSpace(in.ParticipantType)
	if in.ParticipantType == "" {
		in.ParticipantType = DefaultParticipantType
	}
}

// DigitsOnly drops every non-digit rune, so "123.456.789-00" becomes "12345678900".
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCNPJ renders a 14-digit CNPJ as 12.345.678/0001-90. Other values are returned unchanged.
func FormatCNPJ(cnpj string) string {
	if len(cnpj) != 14 || DigitsOnly(cnpj) != cnpj {
		return cnpj
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", cnpj[0:2], cnpj[2:5], cnpj[5:8], cnpj[8:12], cnpj[12:14])
}

// NormalizeRG uppercases the RG and keeps letters and digits only.
func NormalizeRG(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsDigit(r) || unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RegistrationConfirmedMessage is shown after a successful registration.
const RegistrationConfirmedMessage = "Inscrição realizada com sucesso!"

// RegistrationErrorKind classifies why a registration did not succeed.
type RegistrationErrorKind string

const (
	RegistrationUnauthenticated RegistrationErrorKind = "unauthenticated"
	RegistrationInvalid         RegistrationErrorKind = "validation"
	RegistrationNotFound        RegistrationErrorKind = "not_found"
	RegistrationTemporal        RegistrationErrorKind = "temporal"
	RegistrationCapacity        RegistrationErrorKind = "capacity"
	RegistrationDuplicate       RegistrationErrorKind = "duplicate"
	RegistrationUnexpected      RegistrationErrorKind = "unexpected"
)

// RegistrationError is returned by RegistrationService.Register for every
// non-success outcome. Message is user-facing and already localized.
type RegistrationError struct {
	Kind RegistrationErrorKind
	// Reason is a machine-readable detail: the capacity pool or the colliding field.
	Reason      string
	Message     string
	FieldErrors map[string][]string
	Err         error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registration %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("registration %s: %s", e.Kind, e.Message)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// RegistrationService registers attendees for events.
type RegistrationService interface {
	// Register runs the full registration flow for the actor. Every failure is a *RegistrationError.
	Register(ctx context.Context, actor *Actor, input *RegistrationInput) (*Attendance, error)
	ListMyRegistrations(ctx context.Context, userID string) ([]*AttendanceWithEvent, error)
}
