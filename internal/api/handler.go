// Package api provides the HTTP handlers for the BallIQ web front end.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/balliq/balliq-web/internal/auth"
	"github.com/balliq/balliq-web/internal/chat"
	"github.com/balliq/balliq-web/internal/contact"
	"github.com/balliq/balliq-web/internal/session"
	"github.com/balliq/balliq-web/web"
)

// ContactSender forwards contact form submissions.
type ContactSender interface {
	SendAsync(ctx context.Context, m contact.Message)
}

// Deps are the services a Handler needs.
type Deps struct {
	Sessions *session.Manager
	Auth     *auth.Service
	Chat     *chat.Orchestrator
	Contact  ContactSender
	Renderer *web.Renderer
	Content  *web.Content
	Logger   *slog.Logger

	// PublicURL is the externally visible origin; empty means development.
	PublicURL string
	IsDev     bool
}

// Handler serves the pages, form posts and chat streams.
type Handler struct {
	sessions  *session.Manager
	auth      *auth.Service
	chat      *chat.Orchestrator
	contact   ContactSender
	renderer  *web.Renderer
	content   *web.Content
	conns     *ConnRegistry
	logger    *slog.Logger
	publicURL string
	isDev     bool
}

// NewHandler creates a Handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions:  d.Sessions,
		auth:      d.Auth,
		chat:      d.Chat,
		contact:   d.Contact,
		renderer:  d.Renderer,
		content:   d.Content,
		conns:     NewConnRegistry(logger),
		logger:    logger,
		publicURL: d.PublicURL,
		isDev:     d.IsDev,
	}
}

// Conns returns the registry of open chat websockets.
func (h *Handler) Conns() *ConnRegistry {
	return h.conns
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
