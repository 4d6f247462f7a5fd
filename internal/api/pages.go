package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/balliq/balliq-web/internal/auth"
	"github.com/balliq/balliq-web/internal/contact"
	"github.com/balliq/balliq-web/internal/domain"
	"github.com/balliq/balliq-web/internal/nav"
	"github.com/balliq/balliq-web/internal/session"
	"github.com/balliq/balliq-web/internal/validate"
	"github.com/balliq/balliq-web/web"
)

// Notices shown after a contact form post.
const (
	NoticeMessageSent       = "Message sent! We'll get back to you soon."
	NoticeMessageIncomplete = "Please fill all fields"
)

var pageTemplates = map[domain.Page]string{
	domain.PageHome:     web.TemplateHome,
	domain.PageLogin:    web.TemplateLogin,
	domain.PageRegister: web.TemplateRegister,
	domain.PageAboutUs:  web.TemplateAboutUs,
	domain.PageChat:     web.TemplateChat,
}

// Index renders the page selected by the session state. Rendering the chat
// page counts as entering the chat.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := session.IDFromContext(ctx)

	var page domain.Page
	var notice string
	s, err := h.sessions.Update(ctx, id, func(s *domain.SessionState) error {
		page = nav.View(s)
		notice = s.TakeNotice()
		if page == domain.PageChat {
			return h.chat.Enter(ctx, s)
		}
		return nil
	})
	if s == nil {
		h.logger.Error("Failed to load session", "session_id", id, "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	if err != nil {
		h.logger.Warn("Chat entry failed", "session_id", id, "error", err)
		page = domain.PageHome
	}

	data := web.PageData{
		Content:  h.content,
		Page:     page,
		Username: s.Username(),
		Notice:   notice,
	}
	switch page {
	case domain.PageLogin:
		data.Error = s.LoginError
	case domain.PageRegister:
		data.Error = s.RegisterError
	case domain.PageChat:
		data.Messages = s.Transcript
	}
	h.render(w, pageTemplates[page], data)
}

// Navigate applies a navigation event posted by a page button.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := session.IDFromContext(ctx)
	event := nav.Event(r.FormValue("event"))

	if !nav.UserEvent(event) {
		h.logger.Debug("Rejected navigation event", "session_id", id, "event", event)
		redirectHome(w, r)
		return
	}

	_, err := h.sessions.Update(ctx, id, func(s *domain.SessionState) error {
		return nav.Apply(s, event)
	})
	if err != nil {
		h.logger.Debug("Navigation not applied", "session_id", id, "event", event, "error", err)
	}
	redirectHome(w, r)
}

// Login handles the login form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := session.IDFromContext(ctx)
	form := validate.LoginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	var ack auth.Ack
	s, err := h.sessions.Update(ctx, id, func(s *domain.SessionState) error {
		var err error
		ack, err = h.auth.Login(ctx, s, form)
		return err
	})
	h.afterSubmit(w, r, s, ack, err)
}

// Register handles the registration form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := session.IDFromContext(ctx)
	form := validate.RegisterForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		TeamName: strings.TrimSpace(r.FormValue("team_name")),
	}

	var ack auth.Ack
	s, err := h.sessions.Update(ctx, id, func(s *domain.SessionState) error {
		var err error
		ack, err = h.auth.Register(ctx, s, form)
		return err
	})
	h.afterSubmit(w, r, s, ack, err)
}

// afterSubmit shows the acknowledgment page on success and otherwise sends
// the browser back to the form, which now carries the failure message.
func (h *Handler) afterSubmit(w http.ResponseWriter, r *http.Request, s *domain.SessionState, ack auth.Ack, err error) {
	if s == nil {
		h.logger.Error("Failed to save session", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	if err != nil {
		var verr *validate.Error
		if !errors.As(err, &verr) {
			h.logger.Warn("Form submission failed", "session_id", s.ID, "error", err)
		}
		redirectHome(w, r)
		return
	}

	h.render(w, web.TemplateRedirect, web.PageData{
		Content: h.content,
		Page:    s.NavigateTo,
		Redirect: &web.Redirect{
			Message: ack.Message,
			Delay:   ack.Delay,
			Target:  "/",
		},
	})
}

// Logout ends the signed-in part of the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := session.IDFromContext(ctx)

	_, err := h.sessions.Update(ctx, id, func(s *domain.SessionState) error {
		return h.auth.Logout(s)
	})
	if err != nil {
		h.logger.Debug("Logout not applied", "session_id", id, "error", err)
	} else {
		h.conns.CloseSession(id)
	}
	redirectHome(w, r)
}

// Contact relays the home page contact form and flashes the outcome.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := session.IDFromContext(ctx)
	msg := contact.Message{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Message: r.FormValue("message"),
	}

	notice := NoticeMessageSent
	if err := msg.Validate(); err != nil {
		notice = NoticeMessageIncomplete
	} else {
		h.contact.SendAsync(ctx, msg)
	}

	if _, err := h.sessions.Update(ctx, id, func(s *domain.SessionState) error {
		s.Notice = notice
		return nil
	}); err != nil {
		h.logger.Warn("Failed to store contact notice", "session_id", id, "error", err)
	}
	redirectHome(w, r)
}

func (h *Handler) render(w http.ResponseWriter, name string, data web.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Render(w, name, data); err != nil {
		h.logger.Error("Failed to render page", "template", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}
