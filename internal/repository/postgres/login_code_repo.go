package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"corporateevents/internal/domain"
)

type loginCodeRepository struct {
	q dbtx
}

// NewLoginCodeRepository stores only hashes of the one-time codes.
func NewLoginCodeRepository(db *sql.DB) domain.LoginCodeRepository {
	return &loginCodeRepository{q: db}
}

func (r *loginCodeRepository) Create(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO login_codes (email, code_hash, expires_at) VALUES ($1, $2, $3)`,
		email, codeHash, expiresAt)
	if err != nil {
		return fmt.Errorf("insert login code: %w", err)
	}
	return nil
}

// Consume deletes one matching unexpired code and reports whether it found one.
// Two concurrent calls with the same code cannot both succeed.
func (r *loginCodeRepository) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	var id string
	err := r.q.QueryRowContext(ctx, `
		DELETE FROM login_codes
		WHERE id = (
			SELECT id FROM login_codes
			WHERE email = $1 AND code_hash = $2 AND expires_at > NOW()
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id`, email, codeHash).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("consume login code: %w", err)
	}
	return true, nil
}
