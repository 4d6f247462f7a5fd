package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/balliq/balliq-web/internal/chat"
	"github.com/balliq/balliq-web/internal/domain"
	"github.com/balliq/balliq-web/internal/nav"
	"github.com/balliq/balliq-web/internal/session"
	"github.com/coder/websocket"
)

// wsMessage is the chat websocket frame in both directions.
type wsMessage struct {
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	Error    string `json:"error,omitempty"`
	Messages int    `json:"messages,omitempty"`
}

// ChatWebSocket serves the websocket chat transport. Each {"type":"message"}
// frame runs one chat turn; the reply arrives as "chunk" frames followed by
// "done" or "error".
func (h *Handler) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := session.IDFromContext(ctx)

	s, err := h.sessions.View(ctx, id)
	if err != nil {
		h.logger.Error("Failed to load session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if !s.LoggedIn || s.Identity == nil {
		Error(w, http.StatusUnauthorized, "login required")
		return
	}
	if nav.View(s) != domain.PageChat {
		Error(w, http.StatusConflict, "chat page is not open")
		return
	}

	ws, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "session_id", id)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr, "session_id", id)
		}
	}()

	h.conns.Register(id, ws)
	defer h.conns.Unregister(id, ws)

	h.readLoop(ctx, ws, id)
}

func (h *Handler) acceptOptions() *websocket.AcceptOptions {
	if h.isDev || h.publicURL == "" {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	opts := &websocket.AcceptOptions{}
	if u, err := url.Parse(h.publicURL); err == nil && u.Host != "" {
		opts.OriginPatterns = []string{u.Host}
	}
	return opts
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, sessionID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("WebSocket closed by client", "session_id", sessionID)
			} else if ctx.Err() == nil {
				h.logger.Debug("WebSocket read ended", "error", err, "session_id", sessionID)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := h.writeJSON(ctx, ws, wsMessage{Type: "error", Error: "invalid message"}); err != nil {
				return
			}
			continue
		}

		switch msg.Type {
		case "ping":
			if err := h.writeJSON(ctx, ws, wsMessage{Type: "pong"}); err != nil {
				h.logger.Debug("Failed to send pong", "error", err)
				return
			}
		case "message":
			if !h.chatTurn(ctx, ws, sessionID, msg.Content) {
				return
			}
		default:
			if err := h.writeJSON(ctx, ws, wsMessage{Type: "error", Error: "unknown message type"}); err != nil {
				return
			}
		}
	}
}

// chatTurn runs one turn over ws and reports whether the connection is still usable.
func (h *Handler) chatTurn(ctx context.Context, ws *websocket.Conn, sessionID, content string) bool {
	s, err := h.sessions.Update(ctx, sessionID, func(s *domain.SessionState) error {
		return h.chat.Send(ctx, s, content, chat.ChannelWebSocket, func(chunk string) error {
			return h.writeJSON(ctx, ws, wsMessage{Type: "chunk", Content: chunk})
		})
	})

	var reply wsMessage
	switch {
	case errors.Is(err, chat.ErrNotLoggedIn):
		reply = wsMessage{Type: "error", Error: "login required"}
	case errors.Is(err, chat.ErrNotOnChatPage):
		reply = wsMessage{Type: "error", Error: "chat page is not open"}
	case errors.Is(err, chat.ErrEmptyMessage):
		reply = wsMessage{Type: "error", Error: "message is required"}
	case s == nil:
		h.logger.Error("Chat turn could not be saved", "session_id", sessionID, "error", err)
		reply = wsMessage{Type: "error", Error: "session unavailable"}
	case err != nil:
		h.logger.Debug("Chat stream interrupted", "session_id", sessionID, "error", err)
		return false
	default:
		reply = wsMessage{Type: "done", Messages: len(s.Transcript)}
	}
	return h.writeJSON(ctx, ws, reply) == nil
}

func (h *Handler) writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
