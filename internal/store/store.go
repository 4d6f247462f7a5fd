// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/balliq/balliq-web/internal/domain"
)

// ErrDuplicateEmail is returned when an account with the same email already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository defines the interface for persisting accounts and browser sessions.
type Repository interface {
	// GetAccountByEmail retrieves an account by email. Returns nil, nil when absent.
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)

	// CreateAccount inserts a new account record.
	CreateAccount(ctx context.Context, account *domain.Account) error

	// GetSession retrieves a browser session. Returns nil, nil when absent.
	GetSession(ctx context.Context, sessionID string) (*domain.SessionState, error)

	// UpsertSession creates or replaces a browser session.
	UpsertSession(ctx context.Context, session *domain.SessionState) error

	// DeleteSession removes a browser session.
	DeleteSession(ctx context.Context, sessionID string) error

	// DeleteExpiredSessions removes sessions idle for longer than ttl.
	DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
