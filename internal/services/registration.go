package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"corporateevents/internal/domain"
	"corporateevents/internal/validation"
)

// User-facing registration messages.
const (
	msgUnauthenticated    = "Você precisa estar autenticado para se inscrever."
	msgInvalidInput       = "Verifique os campos destacados e tente novamente."
	msgCompanyRequired    = "Informe o CNPJ da empresa."
	msgEventNotFound      = "Evento não encontrado."
	msgEventOccurred      = "Este evento já ocorreu."
	msgRegistrationFailed = "Não foi possível concluir a inscrição. Tente novamente mais tarde."
)

const auditScopeRegistration = "registration"

// errRejected aborts the locked section without committing anything.
var errRejected = errors.New("registration rejected")

// RegistrationOptions configures the registration flow.
type RegistrationOptions struct {
	Cutoff   domain.CutoffPolicy
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

type registrationService struct {
	eventRepo      domain.EventRepository
	attendanceRepo domain.AttendanceRepository
	tasks          domain.TaskQueue
	audit          domain.AuditLogger
	logger         *slog.Logger
	cutoff         domain.CutoffPolicy
	loc            *time.Location
	now            func() time.Time
}

// NewRegistrationService creates a RegistrationService.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	attendanceRepo domain.AttendanceRepository,
	tasks domain.TaskQueue,
	audit domain.AuditLogger,
	logger *slog.Logger,
	opts RegistrationOptions,
) domain.RegistrationService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Cutoff == "" {
		opts.Cutoff = domain.CutoffEventDate
	}
	return &registrationService{
		eventRepo:      eventRepo,
		attendanceRepo: attendanceRepo,
		tasks:          tasks,
		audit:          audit,
		logger:         logger,
		cutoff:         opts.Cutoff,
		loc:            opts.Location,
		now:            opts.Now,
	}
}

func (s *registrationService) Register(ctx context.Context, actor *domain.Actor, input *domain.RegistrationInput) (att *domain.Attendance, err error) {
	if actor == nil || actor.UserID == "" {
		return nil, &domain.RegistrationError{Kind: domain.RegistrationUnauthenticated, Message: msgUnauthenticated}
	}
	defer func() {
		if r := recover(); r != nil {
			att = nil
			err = s.unexpected(ctx, actor, input, fmt.Errorf("panic: %v", r))
		}
	}()
	if input == nil {
		input = &domain.RegistrationInput{}
	}

	input.Normalize()
	fieldErrs, err := validation.FieldErrors(ctx, input)
	if err != nil {
		return nil, s.unexpected(ctx, actor, input, err)
	}
	if len(fieldErrs) > 0 {
		return nil, invalidInput(fieldErrs)
	}
	if input.UserID == "" {
		input.UserID = actor.UserID
	}
	if input.CompanyCNPJ == "" {
		input.CompanyCNPJ = actor.CompanyCNPJ
	}
	if input.CompanyCNPJ == "" {
		return nil, invalidInput(map[string][]string{"company_cnpj": {msgCompanyRequired}})
	}

	event, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, s.unexpected(ctx, actor, input, fmt.Errorf("get event: %w", err))
	}
	// Drafts stay invisible until published.
	if err != nil || !event.Published {
		return nil, &domain.RegistrationError{Kind: domain.RegistrationNotFound, Message: msgEventNotFound}
	}

	now := s.now()
	if now.After(event.RegistrationDeadline(s.cutoff, s.loc)) {
		return nil, &domain.RegistrationError{Kind: domain.RegistrationTemporal, Message: msgEventOccurred}
	}

	attendeeType := domain.AttendeeType(input.AttendeeType)
	var created *domain.Attendance
	var rejection *domain.RegistrationError

	err = s.attendanceRepo.WithEventLock(ctx, event.ID, func(ctx context.Context, repo domain.AttendanceRepository) error {
		counts, err := countAttendances(ctx, repo, event.ID, input.CompanyCNPJ)
		if err != nil {
			return err
		}
		if d := EvaluateCapacity(event, attendeeType, counts); !d.Admitted {
			rejection = &domain.RegistrationError{Kind: domain.RegistrationCapacity, Reason: string(d.Reason), Message: d.Reason.Message()}
			return errRejected
		}

		byUser, err := repo.GetByEventAndUser(ctx, event.ID, input.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get attendance by user: %w", err)
		}
		byIdentity, err := repo.ListByEventAndIdentity(ctx, event.ID, input.AttendeeEmail, input.AttendeeCPF, input.AttendeeRG)
		if err != nil {
			return fmt.Errorf("list attendances by identity: %w", err)
		}
		candidate := RegistrationCandidate{
			EventID: event.ID,
			UserID:  input.UserID,
			Email:   input.AttendeeEmail,
			CPF:     input.AttendeeCPF,
			RG:      input.AttendeeRG,
		}
		if d := CheckDuplicate(candidate, byUser, byIdentity); d.Duplicate {
			rejection = duplicate(d.Field)
			return errRejected
		}

		a := newAttendance(event.ID, input, now)
		if err := repo.Create(ctx, a); err != nil {
			if errors.Is(err, domain.ErrDuplicateAttendance) {
				rejection = duplicate(duplicateFieldOf(err))
				return errRejected
			}
			return fmt.Errorf("create attendance: %w", err)
		}
		created = a
		return nil
	})
	if rejection != nil {
		s.logger.InfoContext(ctx, "registration rejected",
			"event_id", event.ID, "user_id", input.UserID, "kind", rejection.Kind, "reason", rejection.Reason)
		return nil, rejection
	}
	if err != nil {
		return nil, s.unexpected(ctx, actor, input, err)
	}

	s.afterCommit(ctx, actor, event, created)
	return created, nil
}

func countAttendances(ctx context.Context, repo domain.AttendanceRepository, eventID, companyCNPJ string) (CapacityCounts, error) {
	var c CapacityCounts
	var err error
	if c.Presential, err = repo.CountByEventAndType(ctx, eventID, domain.AttendeeInPerson); err != nil {
		return c, fmt.Errorf("count presential: %w", err)
	}
	if c.Online, err = repo.CountByEventAndType(ctx, eventID, domain.AttendeeOnline); err != nil {
		return c, fmt.Errorf("count online: %w", err)
	}
	if c.CompanyPresential, err = repo.CountByEventCompanyAndType(ctx, eventID, companyCNPJ, domain.AttendeeInPerson); err != nil {
		return c, fmt.Errorf("count company presential: %w", err)
	}
	if c.CompanyOnline, err = repo.CountByEventCompanyAndType(ctx, eventID, companyCNPJ, domain.AttendeeOnline); err != nil {
		return c, fmt.Errorf("count company online: %w", err)
	}
	return c, nil
}

func newAttendance(eventID string, in *domain.RegistrationInput, now time.Time) *domain.Attendance {
	return &domain.Attendance{
		EventID:          eventID,
		UserID:           in.UserID,
		CompanyCNPJ:      in.CompanyCNPJ,
		CompanySegment:   in.CompanySegment,
		AttendeeFullName: in.AttendeeFullName,
		AttendeeEmail:    in.AttendeeEmail,
		AttendeePosition: in.AttendeePosition,
		AttendeeRG:       in.AttendeeRG,
		AttendeeCPF:      in.AttendeeCPF,
		MobilePhone:      in.MobilePhone,
		AttendeeType:     domain.AttendeeType(in.AttendeeType),
		ParticipantType:  in.ParticipantType,
		CheckedIn:        false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func invalidInput(fields map[string][]string) *domain.RegistrationError {
	return &domain.RegistrationError{Kind: domain.RegistrationInvalid, Message: msgInvalidInput, FieldErrors: fields}
}

// duplicateFieldOf reads the colliding key from an insert error. Unknown keys count as the user.
func duplicateFieldOf(err error) DuplicateField {
	var dupErr *domain.DuplicateAttendanceError
	if errors.As(err, &dupErr) {
		switch dupErr.Key {
		case domain.AttendanceKeyEmail:
			return DuplicateEmail
		case domain.AttendanceKeyCPF:
			return DuplicateCPF
		case domain.AttendanceKeyRG:
			return DuplicateRG
		}
	}
	return DuplicateUser
}

func duplicate(f DuplicateField) *domain.RegistrationError {
	return &domain.RegistrationError{Kind: domain.RegistrationDuplicate, Reason: string(f), Message: f.Message()}
}

// afterCommit queues the confirmation email and organizer notice, then records the
// audit entry. Nothing here can fail the registration.
func (s *registrationService) afterCommit(ctx context.Context, actor *domain.Actor, event *domain.Event, a *domain.Attendance) {
	payload := domain.RegistrationTaskPayload{Event: event, Attendance: a}
	for _, kind := range []domain.TaskKind{domain.TaskRegistrationConfirmation, domain.TaskOrganizerNotice} {
		task, err := domain.NewTask(kind, payload, s.now())
		if err == nil {
			err = s.tasks.Enqueue(ctx, task)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "enqueue task failed", "kind", kind, "attendance_id", a.ID, "err", err)
		}
	}
	s.audit.Info(ctx, auditScopeRegistration, "Inscrição realizada", actor.UserID, map[string]any{
		"event_id":      event.ID,
		"attendance_id": a.ID,
		"user_id":       a.UserID,
		"attendee_type": string(a.AttendeeType),
		"company_cnpj":  a.CompanyCNPJ,
	})
}

// unexpected logs err, records it in the audit log and hides it behind a generic message.
func (s *registrationService) unexpected(ctx context.Context, actor *domain.Actor, input *domain.RegistrationInput, err error) *domain.RegistrationError {
	meta := map[string]any{"error": err.Error()}
	if input != nil && input.EventID != "" {
		meta["event_id"] = input.EventID
	}
	s.logger.ErrorContext(ctx, "registration failed", "user_id", actor.UserID, "err", err)
	s.audit.Error(ctx, auditScopeRegistration, "Erro ao realizar inscrição", actor.UserID, meta)
	return &domain.RegistrationError{Kind: domain.RegistrationUnexpected, Message: msgRegistrationFailed, Err: err}
}

func (s *registrationService) ListMyRegistrations(ctx context.Context, userID string) ([]*domain.AttendanceWithEvent, error) {
	atts, err := s.attendanceRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}

	// Events are fetched one by one; a user rarely has many registrations.
	eventsByID := make(map[string]*domain.Event)
	result := make([]*domain.AttendanceWithEvent, 0, len(atts))
	for _, a := range atts {
		ev, ok := eventsByID[a.EventID]
		if !ok {
			ev, err = s.eventRepo.GetByID(ctx, a.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("get event for attendance: %w", err)
			}
			eventsByID[a.EventID] = ev
		}
		result = append(result, &domain.AttendanceWithEvent{Attendance: a, Event: ev})
	}
	return result, nil
}
