package api

import (
	"net/http"

	"github.com/balliq/balliq-web/internal/middleware"
	"github.com/balliq/balliq-web/internal/session"
	"github.com/balliq/balliq-web/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires the handlers into a router.
type RouterConfig struct {
	Handler        *Handler
	Health         *HealthHandler
	Sessions       *session.Manager
	AllowedOrigins []string
}

// NewRouter builds the HTTP routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))

	r.Get("/health", cfg.Health.Health)
	r.Handle("/static/*", http.StripPrefix("/static/", web.StaticHandler()))

	r.Group(func(r chi.Router) {
		r.Use(cfg.Sessions.Middleware)
		cfg.Handler.RegisterRoutes(r, cfg.AllowedOrigins)
	})

	return r
}

// RegisterRoutes registers the session-scoped routes.
func (h *Handler) RegisterRoutes(r chi.Router, allowedOrigins []string) {
	r.Get("/", h.Index)
	r.Post("/nav", h.Navigate)
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
	r.Post("/contact", h.Contact)
	r.Post("/chat/messages", h.ChatMessage)
	r.Get("/ws/chat", h.ChatWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(allowedOrigins))
		r.Get("/session", h.SessionSummary)
	})
}
