package domain

import (
	"time"
)

// SessionState is the mutable record tracking one browser session.
// It is owned by exactly one session and passed explicitly to every handler.
type SessionState struct {
	ID             string
	NavigateTo     Page
	LoggedIn       bool
	JustRegistered bool
	Identity       *Identity
	Transcript     []Message
	LoginError     string
	RegisterError  string
	Notice         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSessionState returns a fresh anonymous session parked on the home page.
func NewSessionState(id string) *SessionState {
	now := time.Now()
	return &SessionState{
		ID:         id,
		NavigateTo: PageHome,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddMessage appends a message to the transcript.
func (s *SessionState) AddMessage(role Role, content string) {
	s.Transcript = append(s.Transcript, Message{Role: role, Content: content})
}

// Username returns the logged-in user's name, or "" for anonymous sessions.
func (s *SessionState) Username() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Username
}

// UserID returns the logged-in user's ID, or "" for anonymous sessions.
func (s *SessionState) UserID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.UserID
}

// Clone creates a deep copy of the session state.
func (s *SessionState) Clone() *SessionState {
	clone := *s
	if s.Identity != nil {
		id := *s.Identity
		clone.Identity = &id
	}
	if s.Transcript != nil {
		clone.Transcript = make([]Message, len(s.Transcript))
		copy(clone.Transcript, s.Transcript)
	}
	return &clone
}

// TakeNotice returns the pending one-shot notice and clears it.
func (s *SessionState) TakeNotice() string {
	n := s.Notice
	s.Notice = ""
	return n
}
