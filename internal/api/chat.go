package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/balliq/balliq-web/internal/chat"
	"github.com/balliq/balliq-web/internal/domain"
	"github.com/balliq/balliq-web/internal/session"
)

// sseStream writes server-sent events, sending the stream headers lazily so
// that failures detected before the first event can still use a JSON error.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseStream) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	if !s.started {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.w.Header().Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	if err := writeSSE(s.w, event, string(data)); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// ChatMessage runs one chat turn and streams the reply as server-sent events:
// "chunk" events carry {"content": ...}, then a final "done" or "error".
func (h *Handler) ChatMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := session.IDFromContext(ctx)
	message := r.FormValue("message")

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	stream := &sseStream{w: w, flusher: flusher}

	s, err := h.sessions.Update(ctx, id, func(s *domain.SessionState) error {
		return h.chat.Send(ctx, s, message, chat.ChannelHTTP, func(chunk string) error {
			return stream.send("chunk", map[string]string{"content": chunk})
		})
	})

	switch {
	case errors.Is(err, chat.ErrNotLoggedIn):
		Error(w, http.StatusUnauthorized, "login required")
		return
	case errors.Is(err, chat.ErrNotOnChatPage):
		Error(w, http.StatusConflict, "chat page is not open")
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		Error(w, http.StatusBadRequest, "message is required")
		return
	case s == nil:
		h.logger.Error("Chat turn could not be saved", "session_id", id, "error", err)
		if !stream.started {
			Error(w, http.StatusInternalServerError, "session unavailable")
			return
		}
		_ = stream.send("error", map[string]string{"error": "session unavailable"})
		return
	case err != nil:
		// The client disconnected mid-stream; the reply is already stored.
		h.logger.Debug("Chat stream interrupted", "session_id", id, "error", err)
		return
	}

	if err := stream.send("done", map[string]int{"messages": len(s.Transcript)}); err != nil {
		h.logger.Debug("Failed to write SSE done event", "session_id", id, "error", err)
	}
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
