package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"corporateevents/internal/domain"
)

type auditLogRepository struct {
	DB *sql.DB
}

// NewAuditLogRepository returns an append-only audit log stored in the audit_logs table.
func NewAuditLogRepository(db *sql.DB) domain.AuditLogRepository {
	return &auditLogRepository{DB: db}
}

func (r *auditLogRepository) Create(ctx context.Context, e *domain.AuditEntry) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	query := `
		INSERT INTO audit_logs (level, scope, message, actor_id, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, string(e.Level), e.Scope, e.Message, e.ActorID, meta, e.CreatedAt).Scan(&e.ID)
}

func (r *auditLogRepository) List(ctx context.Context, filter domain.AuditFilter, params domain.PaginationParams) ([]*domain.AuditEntry, int, error) {
	var conds []string
	var args []any
	if filter.Level != "" {
		args = append(args, string(filter.Level))
		conds = append(conds, fmt.Sprintf("level = $%d", len(args)))
	}
	if filter.Scope != "" {
		args = append(args, filter.Scope)
		conds = append(conds, fmt.Sprintf("scope = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, level, scope, message, actor_id, meta, created_at
		FROM audit_logs%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.DB.QueryContext(ctx, query, append(args, params.PageSize, params.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []*domain.AuditEntry{}
	for rows.Next() {
		e := &domain.AuditEntry{}
		var level string
		var actor sql.NullString
		var meta []byte
		if err := rows.Scan(&e.ID, &level, &e.Scope, &e.Message, &actor, &meta, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.Level = domain.AuditLevel(level)
		if actor.Valid {
			e.ActorID = &actor.String
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, 0, fmt.Errorf("unmarshal meta of %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
