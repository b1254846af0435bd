package services

import "corporateevents/internal/domain"

// CapacityReason names the pool that rejected an admission.
type CapacityReason string

const (
	CapacityPresentialExhausted        CapacityReason = "presential_capacity_exhausted"
	CapacityOnlineExhausted            CapacityReason = "online_capacity_exhausted"
	CapacityCompanyPresentialExhausted CapacityReason = "company_presential_capacity_exhausted"
	CapacityCompanyOnlineExhausted     CapacityReason = "company_online_capacity_exhausted"
)

// Message is the user-facing text for the rejection.
func (r CapacityReason) Message() string {
	switch r {
	case CapacityPresentialExhausted:
		return "As vagas presenciais para este evento estão esgotadas."
	case CapacityOnlineExhausted:
		return "As vagas online para este evento estão esgotadas."
	case CapacityCompanyPresentialExhausted:
		return "Sua empresa atingiu o limite de vagas presenciais para este evento."
	case CapacityCompanyOnlineExhausted:
		return "Sua empresa atingiu o limite de vagas online para este evento."
	}
	return "Não há vagas disponíveis para este evento."
}

// CapacityCounts are the live attendance counts an admission decision is based on.
type CapacityCounts struct {
	Presential        int
	Online            int
	CompanyPresential int
	CompanyOnline     int
}

// CapacityDecision is the outcome of EvaluateCapacity. Reason is empty when admitted.
type CapacityDecision struct {
	Admitted bool
	Reason   CapacityReason
}

// EvaluateCapacity decides whether one more registration of attendeeType fits the event.
//
// The event-wide pool is checked first. The per-company cap then always applies to
// in-person registrations, but to online ones only when the event is not free_online.
func EvaluateCapacity(event *domain.Event, attendeeType domain.AttendeeType, counts CapacityCounts) CapacityDecision {
	switch attendeeType {
	case domain.AttendeeInPerson:
		if counts.Presential >= event.VacancyTotal {
			return CapacityDecision{Reason: CapacityPresentialExhausted}
		}
		if counts.CompanyPresential >= event.VacanciesPerBrand {
			return CapacityDecision{Reason: CapacityCompanyPresentialExhausted}
		}
	case domain.AttendeeOnline:
		if counts.Online >= event.VacancyOnline {
			return CapacityDecision{Reason: CapacityOnlineExhausted}
		}
		if !event.FreeOnline && counts.CompanyOnline >= event.VacanciesPerBrand {
			return CapacityDecision{Reason: CapacityCompanyOnlineExhausted}
		}
	}
	return CapacityDecision{Admitted: true}
}
