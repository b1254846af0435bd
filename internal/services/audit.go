package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"corporateevents/internal/domain"
)

type auditLogger struct {
	repo   domain.AuditLogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditLogger returns an AuditLogger that writes entries synchronously to repo.
// A failed write is logged and otherwise ignored.
func NewAuditLogger(repo domain.AuditLogRepository, logger *slog.Logger) domain.AuditLogger {
	return &auditLogger{repo: repo, logger: logger, now: time.Now}
}

func (l *auditLogger) Info(ctx context.Context, scope, message, actorID string, meta map[string]any) {
	l.write(ctx, domain.AuditInfo, scope, message, actorID, meta)
}

func (l *auditLogger) Warn(ctx context.Context, scope, message, actorID string, meta map[string]any) {
	l.write(ctx, domain.AuditWarn, scope, message, actorID, meta)
}

func (l *auditLogger) Error(ctx context.Context, scope, message, actorID string, meta map[string]any) {
	l.write(ctx, domain.AuditError, scope, message, actorID, meta)
}

func (l *auditLogger) write(ctx context.Context, level domain.AuditLevel, scope, message, actorID string, meta map[string]any) {
	entry := &domain.AuditEntry{
		Level:     level,
		Scope:     scope,
		Message:   message,
		Meta:      meta,
		CreatedAt: l.now(),
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if entry.Meta == nil {
		entry.Meta = map[string]any{}
	}
	// The entry must survive a request that was cancelled mid-flight.
	if err := l.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		l.logger.ErrorContext(ctx, "audit write failed", "scope", scope, "level", level, "message", message, "err", err)
	}
}

type auditService struct {
	repo domain.AuditLogRepository
}

// NewAuditService returns the AuditService backing the audit log viewer.
func NewAuditService(repo domain.AuditLogRepository) domain.AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, filter domain.AuditFilter, params domain.PaginationParams) ([]*domain.AuditEntry, int, error) {
	switch filter.Level {
	case "", domain.AuditInfo, domain.AuditWarn, domain.AuditError:
	default:
		return nil, 0, fmt.Errorf("%w: unknown level %q", domain.ErrInvalidInput, filter.Level)
	}
	entries, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, total, nil
}
