package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"corporateevents/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events   map[string]*domain.Event
	err      error
	getCalls int
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[string]*domain.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("ev-%d", len(r.events)+1)
	}
	r.events[e.ID] = e
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if r.err != nil {
		return nil, r.err
	}
	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) ListPublished(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	var out []*domain.Event
	for _, e := range r.events {
		if e.Published {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

// fakeAttendanceRepo keeps attendances in memory. WithEventLock serializes
// callers the way a row lock would.
type fakeAttendanceRepo struct {
	lock sync.Mutex
	mu   sync.Mutex
	rows []*domain.Attendance

	countErr  error
	createErr error
	// beforeCreate runs inside the lock right before the row is stored.
	beforeCreate func()
	lockCalls    int
}

func (r *fakeAttendanceRepo) CountByEventAndType(ctx context.Context, eventID string, t domain.AttendeeType) (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.count(func(a *domain.Attendance) bool { return a.EventID == eventID && a.AttendeeType == t }), nil
}

func (r *fakeAttendanceRepo) CountByEventCompanyAndType(ctx context.Context, eventID, cnpj string, t domain.AttendeeType) (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.count(func(a *domain.Attendance) bool {
		return a.EventID == eventID && a.CompanyCNPJ == cnpj && a.AttendeeType == t
	}), nil
}

func (r *fakeAttendanceRepo) count(match func(*domain.Attendance) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.rows {
		if match(a) {
			n++
		}
	}
	return n
}

func (r *fakeAttendanceRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.EventID == eventID && a.UserID == userID {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAttendanceRepo) ListByEventAndIdentity(ctx context.Context, eventID, email, cpf, rg string) ([]*domain.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Attendance
	for _, a := range r.rows {
		if a.EventID != eventID {
			continue
		}
		if strings.EqualFold(a.AttendeeEmail, email) || a.AttendeeCPF == cpf || strings.EqualFold(a.AttendeeRG, rg) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttendanceRepo) Create(ctx context.Context, a *domain.Attendance) error {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = fmt.Sprintf("att-%d", len(r.rows)+1)
	r.rows = append(r.rows, a)
	return nil
}

func (r *fakeAttendanceRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Attendance
	for _, a := range r.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttendanceRepo) WithEventLock(ctx context.Context, eventID string, fn func(context.Context, domain.AttendanceRepository) error) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.mu.Lock()
	r.lockCalls++
	r.mu.Unlock()
	return fn(ctx, r)
}

func (r *fakeAttendanceRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeTaskQueue struct {
	mu    sync.Mutex
	tasks []*domain.Task
	err   error
}

func (q *fakeTaskQueue) Enqueue(ctx context.Context, t *domain.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, t)
	return nil
}

func (q *fakeTaskQueue) kinds() []domain.TaskKind {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.TaskKind
	for _, t := range q.tasks {
		out = append(out, t.Kind)
	}
	return out
}

type auditCall struct {
	Level   domain.AuditLevel
	Scope   string
	Message string
	ActorID string
	Meta    map[string]any
}

type fakeAuditLogger struct {
	mu    sync.Mutex
	calls []auditCall
}

func (l *fakeAuditLogger) record(level domain.AuditLevel, scope, message, actorID string, meta map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, auditCall{level, scope, message, actorID, meta})
}

func (l *fakeAuditLogger) Info(ctx context.Context, scope, message, actorID string, meta map[string]any) {
	l.record(domain.AuditInfo, scope, message, actorID, meta)
}

func (l *fakeAuditLogger) Warn(ctx context.Context, scope, message, actorID string, meta map[string]any) {
	l.record(domain.AuditWarn, scope, message, actorID, meta)
}

func (l *fakeAuditLogger) Error(ctx context.Context, scope, message, actorID string, meta map[string]any) {
	l.record(domain.AuditError, scope, message, actorID, meta)
}

func (l *fakeAuditLogger) levels() []domain.AuditLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.AuditLevel
	for _, c := range l.calls {
		out = append(out, c.Level)
	}
	return out
}
