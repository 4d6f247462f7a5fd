// Package nav implements the page navigation state machine.
package nav

import (
	"errors"
	"fmt"

	"github.com/balliq/balliq-web/internal/domain"
)

// ErrInvalidTransition is returned when an event is not defined for the current page.
var ErrInvalidTransition = errors.New("invalid navigation transition")

// Event names a single-step transition.
type Event string

const (
	EventLogin         Event = "login"
	EventRegister      Event = "register"
	EventAboutUs       Event = "about_us"
	EventHome          Event = "home"
	EventAuthenticated Event = "authenticated"
	EventRegistered    Event = "registered"
	EventLogout        Event = "logout"
)

type edge struct {
	from  domain.Page
	event Event
}

var transitions = map[edge]domain.Page{
	{domain.PageHome, EventLogin}:          domain.PageLogin,
	{domain.PageHome, EventRegister}:       domain.PageRegister,
	{domain.PageHome, EventAboutUs}:        domain.PageAboutUs,
	{domain.PageLogin, EventHome}:          domain.PageHome,
	{domain.PageRegister, EventHome}:       domain.PageHome,
	{domain.PageAboutUs, EventHome}:        domain.PageHome,
	{domain.PageChat, EventHome}:           domain.PageHome,
	{domain.PageLogin, EventAuthenticated}: domain.PageChat,
	{domain.PageRegister, EventRegistered}: domain.PageLogin,
	{domain.PageChat, EventLogout}:         domain.PageHome,
}

// Next returns the page reached from `from` on event, or ErrInvalidTransition.
func Next(from domain.Page, event Event) (domain.Page, error) {
	to, ok := transitions[edge{from, event}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
	}
	return to, nil
}

// Apply moves the session to the next page. Only NavigateTo changes.
func Apply(s *domain.SessionState, event Event) error {
	to, err := Next(s.NavigateTo, event)
	if err != nil {
		return err
	}
	s.NavigateTo = to
	return nil
}

// UserEvent reports whether event can be triggered directly by a page button.
// Authenticated, registered and logout are only reachable through their flows.
func UserEvent(event Event) bool {
	switch event {
	case EventLogin, EventRegister, EventAboutUs, EventHome:
		return true
	}
	return false
}

// View returns the page that should actually be rendered for s. A chat target
// without a logged-in identity is never rendered as chat.
func View(s *domain.SessionState) domain.Page {
	if !s.NavigateTo.Valid() {
		return domain.PageHome
	}
	if s.NavigateTo == domain.PageChat && (!s.LoggedIn || s.Identity == nil) {
		return domain.PageHome
	}
	return s.NavigateTo
}
