package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/balliq/balliq-web/internal/nav"
	"github.com/balliq/balliq-web/internal/session"
	"github.com/balliq/balliq-web/internal/store"
)

const healthCheckTimeout = 5 * time.Second

// EngineChecker reports answering engine readiness.
type EngineChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo   store.Repository
	engine EngineChecker
}

// NewHealthHandler creates a health handler. engine may be nil when no engine is configured.
func NewHealthHandler(repo store.Repository, engine EngineChecker) *HealthHandler {
	return &HealthHandler{repo: repo, engine: engine}
}

// Health returns the health status of the server and its dependencies. An
// unreachable database fails the check; an unavailable engine only degrades it.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "unhealthy"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	switch {
	case h.engine == nil:
		checks["engine"] = "not_configured"
	case h.engine.Health(ctx) != nil:
		checks["engine"] = "unavailable"
		if statusCode == http.StatusOK {
			status["status"] = "degraded"
		}
	default:
		checks["engine"] = "ok"
	}

	JSON(w, statusCode, status)
}

// SessionSummary returns a JSON view of the caller's session.
func (h *Handler) SessionSummary(w http.ResponseWriter, r *http.Request) {
	id := session.IDFromContext(r.Context())
	s, err := h.sessions.View(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"page":          nav.View(s),
		"logged_in":     s.LoggedIn,
		"username":      s.Username(),
		"message_count": len(s.Transcript),
		"open_sockets":  h.conns.Count(id),
	})
}
