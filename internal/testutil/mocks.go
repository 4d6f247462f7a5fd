package testutil

import (
	"context"
	"time"

	"github.com/balliq/balliq-web/internal/account"
	"github.com/balliq/balliq-web/internal/domain"
	"github.com/balliq/balliq-web/internal/engine"
	"github.com/balliq/balliq-web/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore is a mock implementation of account.Store.
type MockAccountStore struct {
	mock.Mock
}

var _ account.Store = (*MockAccountStore)(nil)

// EmailExists mocks account.Store.EmailExists.
func (m *MockAccountStore) EmailExists(ctx context.Context, email string) bool {
	args := m.Called(ctx, email)
	return args.Bool(0)
}

// VerifyCredentials mocks account.Store.VerifyCredentials.
func (m *MockAccountStore) VerifyCredentials(ctx context.Context, email, password string) bool {
	args := m.Called(ctx, email, password)
	return args.Bool(0)
}

// CreateAccount mocks account.Store.CreateAccount.
func (m *MockAccountStore) CreateAccount(ctx context.Context, username, email, password, teamName string) error {
	args := m.Called(ctx, username, email, password, teamName)
	return args.Error(0)
}

// UserID mocks account.Store.UserID.
func (m *MockAccountStore) UserID(ctx context.Context, email string) (string, bool) {
	args := m.Called(ctx, email)
	return args.String(0), args.Bool(1)
}

// UserProfile mocks account.Store.UserProfile.
func (m *MockAccountStore) UserProfile(ctx context.Context, email string) (account.Profile, bool) {
	args := m.Called(ctx, email)
	return args.Get(0).(account.Profile), args.Bool(1)
}

// MockRepository is a mock implementation of store.Repository.
type MockRepository struct {
	mock.Mock
}

var _ store.Repository = (*MockRepository)(nil)

// GetAccountByEmail mocks store.Repository.GetAccountByEmail.
func (m *MockRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// CreateAccount mocks store.Repository.CreateAccount.
func (m *MockRepository) CreateAccount(ctx context.Context, a *domain.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// GetSession mocks store.Repository.GetSession.
func (m *MockRepository) GetSession(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionState), args.Error(1)
}

// UpsertSession mocks store.Repository.UpsertSession.
func (m *MockRepository) UpsertSession(ctx context.Context, s *domain.SessionState) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// DeleteSession mocks store.Repository.DeleteSession.
func (m *MockRepository) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// DeleteExpiredSessions mocks store.Repository.DeleteExpiredSessions.
func (m *MockRepository) DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	args := m.Called(ctx, ttl)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks store.Repository.Ping.
func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks store.Repository.Close.
func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEngine is a mock implementation of engine.Engine.
type MockEngine struct {
	mock.Mock
}

var _ engine.Engine = (*MockEngine)(nil)

// Login mocks engine.Engine.Login.
func (m *MockEngine) Login(ctx context.Context, userID string, contextVersion int) error {
	args := m.Called(ctx, userID, contextVersion)
	return args.Error(0)
}

// Respond mocks engine.Engine.Respond.
func (m *MockEngine) Respond(ctx context.Context, req engine.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
