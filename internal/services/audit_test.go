package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"corporateevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditRepo struct {
	entries    []*domain.AuditEntry
	err        error
	lastFilter domain.AuditFilter
}

func (r *fakeAuditRepo) Create(ctx context.Context, e *domain.AuditEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, f domain.AuditFilter, p domain.PaginationParams) ([]*domain.AuditEntry, int, error) {
	r.lastFilter = f
	if r.err != nil {
		return nil, 0, r.err
	}
	return r.entries, len(r.entries), nil
}

func TestAuditLogger_writesEntries(t *testing.T) {
	repo := &fakeAuditRepo{}
	l := NewAuditLogger(repo, discardLogger())
	l.(*auditLogger).now = func() time.Time { return testNow }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l.Info(ctx, "registration", "ok", "u-1", map[string]any{"event_id": "ev-1"})
	l.Warn(ctx, "registration", "hm", "", nil)
	l.Error(ctx, "registration", "boom", "u-1", nil)

	require.Len(t, repo.entries, 3)
	first := repo.entries[0]
	assert.Equal(t, domain.AuditInfo, first.Level)
	require.NotNil(t, first.ActorID)
	assert.Equal(t, "u-1", *first.ActorID)
	assert.Equal(t, "ev-1", first.Meta["event_id"])
	assert.Equal(t, testNow, first.CreatedAt)

	assert.Equal(t, domain.AuditWarn, repo.entries[1].Level)
	assert.Nil(t, repo.entries[1].ActorID)
	assert.NotNil(t, repo.entries[1].Meta)
	assert.Equal(t, domain.AuditError, repo.entries[2].Level)
}

func TestAuditLogger_swallowsWriteErrors(t *testing.T) {
	repo := &fakeAuditRepo{err: errors.New("db down")}
	l := NewAuditLogger(repo, discardLogger())

	assert.NotPanics(t, func() {
		l.Error(context.Background(), "registration", "boom", "", nil)
	})
}

func TestAuditService_List(t *testing.T) {
	repo := &fakeAuditRepo{entries: []*domain.AuditEntry{{ID: "a1"}}}
	svc := NewAuditService(repo)
	params := domain.PaginationParams{Page: 1, PageSize: 20}

	entries, total, err := svc.List(context.Background(), domain.AuditFilter{Level: domain.AuditError, Scope: "registration"}, params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, entries, 1)
	assert.Equal(t, "registration", repo.lastFilter.Scope)

	_, _, err = svc.List(context.Background(), domain.AuditFilter{Level: "debug"}, params)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
