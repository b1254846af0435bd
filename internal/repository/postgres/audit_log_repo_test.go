package postgres

import (
	"context"
	"testing"

	"corporateevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	actor := "u-1"
	mock.ExpectQuery(`INSERT INTO audit_logs`).
		WithArgs("error", "registration", "boom", &actor, []byte(`{"event_id":"ev-1"}`), testCreated).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("al-1"))

	e := &domain.AuditEntry{
		Level: domain.AuditError, Scope: "registration", Message: "boom", ActorID: &actor,
		Meta: map[string]any{"event_id": "ev-1"}, CreatedAt: testCreated,
	}
	require.NoError(t, NewAuditLogRepository(db).Create(context.Background(), e))
	assert.Equal(t, "al-1", e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepository_List(t *testing.T) {
	cols := []string{"id", "level", "scope", "message", "actor_id", "meta", "created_at"}

	t.Run("with filters", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs WHERE level = \$1 AND scope = \$2`).
			WithArgs("error", "registration").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`FROM audit_logs WHERE level = \$1 AND scope = \$2\s+ORDER BY created_at DESC\s+LIMIT \$3 OFFSET \$4`).
			WithArgs("error", "registration", 10, 0).
			WillReturnRows(sqlmock.NewRows(cols).AddRow("al-1", "error", "registration", "boom", "u-1", []byte(`{"event_id":"ev-1"}`), testCreated))

		entries, total, err := NewAuditLogRepository(db).List(context.Background(),
			domain.AuditFilter{Level: domain.AuditError, Scope: "registration"}, domain.PaginationParams{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditError, entries[0].Level)
		require.NotNil(t, entries[0].ActorID)
		assert.Equal(t, "ev-1", entries[0].Meta["event_id"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no filters and null actor", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs$`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`FROM audit_logs\s+ORDER BY created_at DESC\s+LIMIT \$1 OFFSET \$2`).
			WithArgs(20, 20).
			WillReturnRows(sqlmock.NewRows(cols).AddRow("al-2", "info", "event", "ok", nil, []byte(`{}`), testCreated))

		entries, _, err := NewAuditLogRepository(db).List(context.Background(), domain.AuditFilter{}, domain.PaginationParams{Page: 2, PageSize: 20})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Nil(t, entries[0].ActorID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
