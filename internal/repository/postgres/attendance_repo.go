package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"corporateevents/internal/domain"
)

type attendanceRepository struct {
	// DB is nil for a repository bound to a transaction.
	DB *sql.DB
	q  dbtx
}

func NewAttendanceRepository(db *sql.DB) domain.AttendanceRepository {
	return &attendanceRepository{DB: db, q: db}
}

const attendanceColumns = `id, event_id, user_id, company_cnpj, company_segment, attendee_full_name,
		attendee_email, attendee_position, attendee_rg, attendee_cpf, mobile_phone, attendee_type,
		participant_type, checked_in, created_at, updated_at`

func scanAttendance(s rowScanner) (*domain.Attendance, error) {
	a := &domain.Attendance{}
	var attendeeType string
	err := s.Scan(
		&a.ID, &a.EventID, &a.UserID, &a.CompanyCNPJ, &a.CompanySegment, &a.AttendeeFullName,
		&a.AttendeeEmail, &a.AttendeePosition, &a.AttendeeRG, &a.AttendeeCPF, &a.MobilePhone, &attendeeType,
		&a.ParticipantType, &a.CheckedIn, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.AttendeeType = domain.AttendeeType(attendeeType)
	return a, nil
}

func (r *attendanceRepository) CountByEventAndType(ctx context.Context, eventID string, attendeeType domain.AttendeeType) (int, error) {
	query := `SELECT COUNT(*) FROM attendances WHERE event_id = $1 AND attendee_type = $2`
	var n int
	if err := r.q.QueryRowContext(ctx, query, eventID, string(attendeeType)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *attendanceRepository) CountByEventCompanyAndType(ctx context.Context, eventID, companyCNPJ string, attendeeType domain.AttendeeType) (int, error) {
	query := `SELECT COUNT(*) FROM attendances WHERE event_id = $1 AND company_cnpj = $2 AND attendee_type = $3`
	var n int
	if err := r.q.QueryRowContext(ctx, query, eventID, companyCNPJ, string(attendeeType)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *attendanceRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE event_id = $1 AND user_id = $2 LIMIT 1`
	a, err := scanAttendance(r.q.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendanceRepository) ListByEventAndIdentity(ctx context.Context, eventID, email, cpf, rg string) ([]*domain.Attendance, error) {
	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE event_id = $1
		  AND ((lower(attendee_email) = lower($2) AND $2 <> '')
		    OR (attendee_cpf = $3 AND $3 <> '')
		    OR (upper(attendee_rg) = upper($4) AND $4 <> ''))
		ORDER BY created_at ASC`
	return r.list(ctx, query, eventID, email, cpf, rg)
}

func (r *attendanceRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Attendance, error) {
	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE user_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *attendanceRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Attendance, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attendanceRepository) Create(ctx context.Context, a *domain.Attendance) error {
	query := `
		INSERT INTO attendances (event_id, user_id, company_cnpj, company_segment, attendee_full_name,
			attendee_email, attendee_position, attendee_rg, attendee_cpf, mobile_phone, attendee_type,
			participant_type, checked_in, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query,
		a.EventID, a.UserID, a.CompanyCNPJ, a.CompanySegment, a.AttendeeFullName,
		a.AttendeeEmail, a.AttendeePosition, a.AttendeeRG, a.AttendeeCPF, a.MobilePhone, string(a.AttendeeType),
		a.ParticipantType, a.CheckedIn, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateAttendanceError{Key: attendanceKey(err)}
		}
		return err
	}
	return nil
}

// attendanceKeys maps the unique indexes on attendances to the key they guard.
var attendanceKeys = map[string]string{
	"attendances_event_user_key":  domain.AttendanceKeyUser,
	"attendances_event_email_key": domain.AttendanceKeyEmail,
	"attendances_event_cpf_key":   domain.AttendanceKeyCPF,
	"attendances_event_rg_key":    domain.AttendanceKeyRG,
}

func attendanceKey(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if key, ok := attendanceKeys[pqErr.Constraint]; ok {
			return key
		}
	}
	return domain.AttendanceKeyUser
}

func (r *attendanceRepository) WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, repo domain.AttendanceRepository) error) error {
	if r.DB == nil {
		// Already inside a transaction holding the lock.
		return fn(ctx, r)
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var id string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}
	if err := fn(ctx, &attendanceRepository{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
