// Package session maps browser cookies to persisted session state and
// serializes interactions on each session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/balliq/balliq-web/internal/domain"
	"github.com/balliq/balliq-web/internal/shared"
	"github.com/balliq/balliq-web/internal/store"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// CookieName carries the session ID.
	CookieName = "balliq_session"

	idLength       = 21
	saveRetries    = 3
	saveRetryDelay = 50 * time.Millisecond
	defaultTTL     = 24 * time.Hour
)

type contextKey int

const sessionIDKey contextKey = iota

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{21}$`)

// IDFromContext returns the session ID injected by Manager.Middleware.
func IDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithID returns a context carrying a session ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// NewID generates a session ID.
func NewID() (string, error) {
	id, err := gonanoid.New(idLength)
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return id, nil
}

// Config configures a Manager.
type Config struct {
	TTL    time.Duration
	Secure bool
}

type sessionLock struct {
	mu       sync.Mutex
	lastUsed atomic.Int64
}

// Manager loads, mutates and saves session state. Updates on the same session
// run one at a time; different sessions proceed concurrently.
type Manager struct {
	repo   store.Repository
	cfg    Config
	logger *slog.Logger
	locks  sync.Map // session ID -> *sessionLock
}

// NewManager creates a session manager.
func NewManager(repo store.Repository, cfg Config, logger *slog.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{repo: repo, cfg: cfg, logger: logger}
}

// Middleware ensures every request carries a valid session cookie and puts the
// session ID in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(CookieName); err == nil && idPattern.MatchString(c.Value) {
			id = c.Value
		}
		if id == "" {
			var err error
			if id, err = NewID(); err != nil {
				m.logger.Error("Failed to create session", "error", err)
				http.Error(w, `{"error":"failed to establish session"}`, http.StatusInternalServerError)
				return
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(m.cfg.TTL.Seconds()),
			Expires:  time.Now().Add(m.cfg.TTL),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   m.cfg.Secure,
		})

		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

// lock acquires the lock for id. An entry removed while we waited on it is
// stale, so the loop retries with the current entry.
func (m *Manager) lock(id string) *sessionLock {
	for {
		v, _ := m.locks.LoadOrStore(id, &sessionLock{})
		l := v.(*sessionLock)
		l.mu.Lock()
		if cur, ok := m.locks.Load(id); ok && cur == l {
			l.lastUsed.Store(time.Now().UnixNano())
			return l
		}
		l.mu.Unlock()
	}
}

// Load returns the stored state for id, or a fresh home-page state when none exists.
func (m *Manager) Load(ctx context.Context, id string) (*domain.SessionState, error) {
	s, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return domain.NewSessionState(id), nil
	}
	return s, nil
}

// Update loads the state for id, applies fn and saves the result while holding
// the session's lock. The state is saved even when fn returns an error, since
// failed submissions record their message on the session. The returned state is
// a copy that is safe to read after the lock is released.
func (m *Manager) Update(ctx context.Context, id string, fn func(*domain.SessionState) error) (*domain.SessionState, error) {
	l := m.lock(id)
	defer l.mu.Unlock()

	s, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	fnErr := fn(s)

	s.UpdatedAt = time.Now()
	saveCtx := context.WithoutCancel(ctx)
	if err := shared.RetryOnConflict(saveCtx, saveRetries, saveRetryDelay, func() error {
		return m.repo.UpsertSession(saveCtx, s)
	}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return s.Clone(), fnErr
}

// View loads a read-only copy of the state for id.
func (m *Manager) View(ctx context.Context, id string) (*domain.SessionState, error) {
	l := m.lock(id)
	defer l.mu.Unlock()
	return m.Load(ctx, id)
}

// Delete removes the stored state for id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	l := m.lock(id)
	defer l.mu.Unlock()

	if err := m.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	m.locks.Delete(id)
	return nil
}

// pruneLocks drops lock entries idle for longer than the TTL.
func (m *Manager) pruneLocks() int {
	threshold := time.Now().Add(-m.cfg.TTL).UnixNano()
	pruned := 0
	m.locks.Range(func(key, value any) bool {
		l := value.(*sessionLock)
		if l.lastUsed.Load() >= threshold || !l.mu.TryLock() {
			return true
		}
		m.locks.Delete(key)
		l.mu.Unlock()
		pruned++
		return true
	})
	return pruned
}
