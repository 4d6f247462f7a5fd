// Package account adapts the persistent repository to the account capability
// consumed by the login and registration flows.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/balliq/balliq-web/internal/domain"
	"github.com/balliq/balliq-web/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Profile is the public part of an account.
type Profile struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	TeamName string `json:"team_name"`
}

// Store is the account capability. Lookups signal failure through booleans and
// absence only; store errors are logged and reported as "not found".
type Store interface {
	EmailExists(ctx context.Context, email string) bool
	VerifyCredentials(ctx context.Context, email, password string) bool
	CreateAccount(ctx context.Context, username, email, password, teamName string) error
	UserID(ctx context.Context, email string) (string, bool)
	UserProfile(ctx context.Context, email string) (Profile, bool)
}

// Adapter implements Store on top of a store.Repository.
type Adapter struct {
	repo     store.Repository
	logger   *slog.Logger
	hashCost int
}

var _ Store = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithHashCost overrides the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(a *Adapter) {
		a.hashCost = cost
	}
}

// NewAdapter creates an account adapter.
func NewAdapter(repo store.Repository, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		repo:     repo,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Adapter) lookup(ctx context.Context, email string) *domain.Account {
	account, err := a.repo.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		a.logger.Error("Account lookup failed", "error", err)
		return nil
	}
	return account
}

// EmailExists reports whether an account is registered under email.
func (a *Adapter) EmailExists(ctx context.Context, email string) bool {
	return a.lookup(ctx, email) != nil
}

// VerifyCredentials checks password against the stored hash.
func (a *Adapter) VerifyCredentials(ctx context.Context, email, password string) bool {
	account := a.lookup(ctx, email)
	if account == nil {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		a.logger.Warn("Password hash comparison failed", "user_id", account.UserID, "error", err)
	}
	return err == nil
}

// CreateAccount hashes the password and stores a new account.
func (a *Adapter) CreateAccount(ctx context.Context, username, email, password, teamName string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		UserID:       uuid.NewString(),
		Username:     strings.TrimSpace(username),
		Email:        NormalizeEmail(email),
		PasswordHash: string(hash),
		TeamName:     strings.TrimSpace(teamName),
		CreatedAt:    time.Now(),
	}
	if err := a.repo.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	a.logger.Info("Account created", "user_id", account.UserID)
	return nil
}

// UserID returns the ID of the account registered under email.
func (a *Adapter) UserID(ctx context.Context, email string) (string, bool) {
	account := a.lookup(ctx, email)
	if account == nil {
		return "", false
	}
	return account.UserID, true
}

// UserProfile returns the public profile of the account registered under email.
func (a *Adapter) UserProfile(ctx context.Context, email string) (Profile, bool) {
	account := a.lookup(ctx, email)
	if account == nil {
		return Profile{}, false
	}
	return Profile{
		UserID:   account.UserID,
		Username: account.Username,
		Email:    account.Email,
		TeamName: account.TeamName,
	}, true
}
