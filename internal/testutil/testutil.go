// Package testutil holds shared test helpers and testify mocks.
package testutil

import (
	"log/slog"
	"time"

	"github.com/balliq/balliq-web/internal/domain"
)

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewLoggedInSession returns a session that has completed login and sits on the chat page.
func NewLoggedInSession(id, userID, username string) *domain.SessionState {
	s := domain.NewSessionState(id)
	s.NavigateTo = domain.PageChat
	s.LoggedIn = true
	s.Identity = &domain.Identity{UserID: userID, Username: username}
	s.UpdatedAt = time.Now()
	return s
}
