package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/balliq/balliq-web/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "balliq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteAccountRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	missing, err := repo.GetAccountByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created := time.Unix(1700000000, 0)
	require.NoError(t, repo.CreateAccount(ctx, &domain.Account{
		UserID:       "u-1",
		Username:     "ana",
		Email:        "ana@example.com",
		PasswordHash: "hash",
		TeamName:     "Reds",
		CreatedAt:    created,
	}))

	got, err := repo.GetAccountByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "ana", got.Username)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, "Reds", got.TeamName)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestSQLiteCreateAccountDuplicateEmail(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	account := &domain.Account{UserID: "u-1", Username: "ana", Email: "ana@example.com", PasswordHash: "h", TeamName: "Reds", CreatedAt: time.Now()}
	require.NoError(t, repo.CreateAccount(ctx, account))

	dup := *account
	dup.UserID = "u-2"
	err := repo.CreateAccount(ctx, &dup)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestSQLiteSessionRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	missing, err := repo.GetSession(ctx, "sid")
	require.NoError(t, err)
	assert.Nil(t, missing)

	s := domain.NewSessionState("sid")
	s.NavigateTo = domain.PageChat
	s.LoggedIn = true
	s.JustRegistered = true
	s.Identity = &domain.Identity{UserID: "u-1", Username: "ana"}
	s.AddMessage(domain.RoleAssistant, "Welcome ana, ask me anything you want!")
	s.AddMessage(domain.RoleUser, "Who should I captain?")
	s.LoginError = "Incorrect password"
	s.Notice = "Message sent!"
	require.NoError(t, repo.UpsertSession(ctx, s))

	got, err := repo.GetSession(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.PageChat, got.NavigateTo)
	assert.True(t, got.LoggedIn)
	assert.True(t, got.JustRegistered)
	assert.Equal(t, s.Identity, got.Identity)
	assert.Equal(t, s.Transcript, got.Transcript)
	assert.Equal(t, "Incorrect password", got.LoginError)
	assert.Equal(t, "Message sent!", got.Notice)

	// Logging out clears identity and transcript.
	got.Identity = nil
	got.LoggedIn = false
	got.Transcript = nil
	got.NavigateTo = domain.PageHome
	require.NoError(t, repo.UpsertSession(ctx, got))

	again, err := repo.GetSession(ctx, "sid")
	require.NoError(t, err)
	assert.Nil(t, again.Identity)
	assert.Empty(t, again.Transcript)
	assert.Equal(t, domain.PageHome, again.NavigateTo)
}

func TestSQLiteDeleteSessions(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertSession(ctx, domain.NewSessionState("a")))
	require.NoError(t, repo.UpsertSession(ctx, domain.NewSessionState("b")))

	require.NoError(t, repo.DeleteSession(ctx, "a"))
	gone, err := repo.GetSession(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, gone)

	deleted, err := repo.DeleteExpiredSessions(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	deleted, err = repo.DeleteExpiredSessions(ctx, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestNewSQLiteIsIdempotentAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balliq.db")

	first, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.CreateAccount(context.Background(), &domain.Account{
		UserID: "u-1", Username: "ana", Email: "ana@example.com", PasswordHash: "h", TeamName: "Reds", CreatedAt: time.Now(),
	}))
	require.NoError(t, first.Close())

	second, err := NewSQLite(path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	got, err := second.GetAccountByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestGetAccountByEmailWrapsQueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := newSQLiteStore(db)
	mock.ExpectQuery("SELECT user_id, username, email, password_hash, team_name, created_at FROM accounts").
		WithArgs("ana@example.com").
		WillReturnError(errors.New("disk I/O error"))

	account, err := repo.GetAccountByEmail(context.Background(), "ana@example.com")

	assert.Nil(t, account)
	assert.ErrorContains(t, err, "scan account row")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccountMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := newSQLiteStore(db)
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("u-1", "ana", "ana@example.com", "h", "Reds", sqlmock.AnyArg()).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: accounts.email (2067)"))

	err = repo.CreateAccount(context.Background(), &domain.Account{
		UserID: "u-1", Username: "ana", Email: "ana@example.com", PasswordHash: "h", TeamName: "Reds", CreatedAt: time.Now(),
	})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionRejectsCorruptTranscript(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := newSQLiteStore(db)
	rows := sqlmock.NewRows([]string{
		"session_id", "navigate_to", "logged_in", "just_registered", "user_id", "username",
		"transcript_json", "login_error", "register_error", "notice", "created_at", "updated_at",
	}).AddRow("sid", "chat", true, false, "u-1", "ana", "{not json", "", "", "", int64(1), int64(1))
	mock.ExpectQuery("FROM browser_sessions WHERE session_id").WithArgs("sid").WillReturnRows(rows)

	session, err := repo.GetSession(context.Background(), "sid")

	assert.Nil(t, session)
	assert.ErrorContains(t, err, "decode transcript")
	assert.NoError(t, mock.ExpectationsWereMet())
}
