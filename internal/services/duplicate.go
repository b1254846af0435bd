package services

import (
	"strings"

	"corporateevents/internal/domain"
)

// DuplicateField names what a duplicate registration collided on.
type DuplicateField string

const (
	DuplicateUser  DuplicateField = "user"
	DuplicateEmail DuplicateField = "email"
	DuplicateCPF   DuplicateField = "cpf"
	DuplicateRG    DuplicateField = "rg"
)

// Message is the user-facing text for the collision.
func (f DuplicateField) Message() string {
	switch f {
	case DuplicateUser:
		return "Você já está inscrito neste evento."
	case DuplicateEmail:
		return "Já existe uma inscrição com este e-mail para este evento."
	case DuplicateCPF:
		return "Já existe uma inscrição com este CPF para este evento."
	case DuplicateRG:
		return "Já existe uma inscrição com este RG para este evento."
	}
	return "Inscrição duplicada."
}

// RegistrationCandidate is the identity a new registration claims.
type RegistrationCandidate struct {
	EventID string
	UserID  string
	Email   string
	CPF     string
	RG      string
}

// DuplicateDecision is the outcome of CheckDuplicate. Field is empty when unique.
type DuplicateDecision struct {
	Duplicate bool
	Field     DuplicateField
}

// CheckDuplicate reports whether the candidate collides with existing attendances.
// existingByUser is the user's attendance for the event, if any; byIdentity are the
// event's attendances sharing the email, CPF or RG. Email wins over CPF, CPF over RG.
func CheckDuplicate(c RegistrationCandidate, existingByUser *domain.Attendance, byIdentity []*domain.Attendance) DuplicateDecision {
	if existingByUser != nil {
		return DuplicateDecision{Duplicate: true, Field: DuplicateUser}
	}
	matches := []struct {
		field DuplicateField
		match func(a *domain.Attendance) bool
	}{
		{DuplicateEmail, func(a *domain.Attendance) bool {
			return c.Email != "" && strings.EqualFold(a.AttendeeEmail, c.Email)
		}},
		{DuplicateCPF, func(a *domain.Attendance) bool {
			return c.CPF != "" && a.AttendeeCPF == c.CPF
		}},
		{DuplicateRG, func(a *domain.Attendance) bool {
			return c.RG != "" && strings.EqualFold(a.AttendeeRG, c.RG)
		}},
	}
	for _, m := range matches {
		for _, a := range byIdentity {
			if a.EventID != c.EventID {
				continue
			}
			if m.match(a) {
				return DuplicateDecision{Duplicate: true, Field: m.field}
			}
		}
	}
	return DuplicateDecision{}
}
