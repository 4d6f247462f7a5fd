// Package auth runs the login, registration and logout flows on a session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/balliq/balliq-web/internal/account"
	"github.com/balliq/balliq-web/internal/domain"
	"github.com/balliq/balliq-web/internal/nav"
	"github.com/balliq/balliq-web/internal/validate"
)

// Acknowledgment messages shown after a successful submission.
const (
	MsgLoginSuccess       = "Login successful! Redirecting to the chatbot..."
	MsgRegisterSuccess    = "Registration successful!"
	MsgRegistrationFailed = "Registration failed, please try again"
)

// Ack is a confirmation shown for Delay before the next page renders.
type Ack struct {
	Message string
	Delay   time.Duration
}

// Config holds acknowledgment delays.
type Config struct {
	RedirectDelay time.Duration
	RegisterDelay time.Duration
}

// DefaultConfig returns the standard two second acknowledgments.
func DefaultConfig() Config {
	return Config{
		RedirectDelay: 2 * time.Second,
		RegisterDelay: 2 * time.Second,
	}
}

// Service applies form submissions to session state.
type Service struct {
	accounts account.Store
	cfg      Config
	logger   *slog.Logger
}

// NewService creates an auth service.
func NewService(accounts account.Store, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{accounts: accounts, cfg: cfg, logger: logger}
}

// Login validates f and, on success, authenticates s and moves it to the chat
// page. Logging in as a different user drops the previous user's transcript.
// A validation failure is stored in s.LoginError and returned as a
// *validate.Error; s stays on the login page.
func (svc *Service) Login(ctx context.Context, s *domain.SessionState, f validate.LoginForm) (Ack, error) {
	if s.NavigateTo != domain.PageLogin {
		return Ack{}, fmt.Errorf("login from %s: %w", s.NavigateTo, nav.ErrInvalidTransition)
	}

	if err := validate.Login(ctx, svc.accounts, f); err != nil {
		s.LoginError = failureMessage(err)
		return Ack{}, err
	}

	profile, ok := svc.accounts.UserProfile(ctx, f.Email)
	if !ok {
		// Account vanished between validation and lookup.
		s.LoginError = validate.MsgEmailNotRegistered
		return Ack{}, &validate.Error{Field: "email", Message: validate.MsgEmailNotRegistered}
	}

	if err := nav.Apply(s, nav.EventAuthenticated); err != nil {
		return Ack{}, err
	}
	if prev := s.UserID(); prev != "" && prev != profile.UserID {
		// The transcript belongs to the previous identity.
		s.Transcript = nil
		svc.logger.Info("Session switched user", "session_id", s.ID, "previous_user_id", prev)
	}
	s.LoginError = ""
	s.LoggedIn = true
	s.Identity = &domain.Identity{UserID: profile.UserID, Username: profile.Username}

	svc.logger.Info("User logged in", "session_id", s.ID, "user_id", profile.UserID)
	return Ack{Message: MsgLoginSuccess, Delay: svc.cfg.RedirectDelay}, nil
}

// Register validates f, creates the account and moves s to the login page with
// JustRegistered set. Failures are stored in s.RegisterError.
func (svc *Service) Register(ctx context.Context, s *domain.SessionState, f validate.RegisterForm) (Ack, error) {
	if s.NavigateTo != domain.PageRegister {
		return Ack{}, fmt.Errorf("register from %s: %w", s.NavigateTo, nav.ErrInvalidTransition)
	}

	if err := validate.Registration(ctx, svc.accounts, f); err != nil {
		s.RegisterError = failureMessage(err)
		return Ack{}, err
	}

	if err := svc.accounts.CreateAccount(ctx, f.Username, f.Email, f.Password, f.TeamName); err != nil {
		svc.logger.Error("Account creation failed", "session_id", s.ID, "error", err)
		s.RegisterError = MsgRegistrationFailed
		return Ack{}, fmt.Errorf("register: %w", err)
	}

	if err := nav.Apply(s, nav.EventRegistered); err != nil {
		return Ack{}, err
	}
	s.RegisterError = ""
	s.JustRegistered = true

	svc.logger.Info("User registered", "session_id", s.ID)
	return Ack{Message: MsgRegisterSuccess, Delay: svc.cfg.RegisterDelay}, nil
}

// Logout clears identity and transcript and returns s to the home page.
func (svc *Service) Logout(s *domain.SessionState) error {
	userID := s.UserID()
	if err := nav.Apply(s, nav.EventLogout); err != nil {
		return err
	}
	s.LoggedIn = false
	s.JustRegistered = false
	s.Identity = nil
	s.Transcript = nil

	svc.logger.Info("User logged out", "session_id", s.ID, "user_id", userID)
	return nil
}

func failureMessage(err error) string {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
