package domain

import (
	"context"
	"time"
)

// AuditLevel is the severity of an audit entry.
type AuditLevel string

const (
	AuditInfo  AuditLevel = "info"
	AuditWarn  AuditLevel = "warn"
	AuditError AuditLevel = "error"
)

// AuditEntry is one append-only audit log record.
// swagger:model AuditEntry
type AuditEntry struct {
	ID        string         `json:"id"`
	Level     AuditLevel     `json:"level"`
	Scope     string         `json:"scope"`
	Message   string         `json:"message"`
	ActorID   *string        `json:"actor_id"`
	Meta      map[string]any `json:"meta"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditFilter narrows an audit log listing. Empty fields do not filter.
type AuditFilter struct {
	Level AuditLevel
	Scope string
}

// AuditLogRepository stores and lists audit entries.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, filter AuditFilter, params PaginationParams) ([]*AuditEntry, int, error)
}

// AuditLogger records audit entries. Calls never fail the caller; write errors
// are reported to the application log only. An empty actorID is stored as null.
type AuditLogger interface {
	Info(ctx context.Context, scope, message, actorID string, meta map[string]any)
	Warn(ctx context.Context, scope, message, actorID string, meta map[string]any)
	Error(ctx context.Context, scope, message, actorID string, meta map[string]any)
}

// AuditService backs the audit log viewer.
type AuditService interface {
	List(ctx context.Context, filter AuditFilter, params PaginationParams) ([]*AuditEntry, int, error)
}
