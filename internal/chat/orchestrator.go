// Package chat drives the chat page: greeting on entry, transcript updates,
// engine calls and the paced reveal of each reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/balliq/balliq-web/internal/domain"
	"github.com/balliq/balliq-web/internal/engine"
	"github.com/balliq/balliq-web/internal/nav"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// FallbackReply is streamed and stored when the engine cannot answer.
const FallbackReply = "Sorry, I couldn't get an answer right now. Please try again."

// Conversation log channels.
const (
	ChannelHTTP      = "chat_http"
	ChannelWebSocket = "chat_ws"
)

var (
	// ErrNotLoggedIn is returned when chat is used without an authenticated session.
	ErrNotLoggedIn = errors.New("chat requires a logged-in session")

	// ErrNotOnChatPage is returned when a logged-in session is not on the chat page.
	ErrNotOnChatPage = errors.New("chat page is not open")

	// ErrEmptyMessage is returned for blank input. The transcript is left untouched.
	ErrEmptyMessage = errors.New("message is empty")
)

// Emit receives each chunk of a streamed reply. A non-nil error stops the stream.
type Emit func(chunk string) error

// Config holds orchestrator settings.
type Config struct {
	Pacing         Pacing
	ContextVersion int
}

// Orchestrator runs chat turns against an answering engine.
type Orchestrator struct {
	engine engine.Engine
	cfg    Config
	log    ConversationLogger
	logger *slog.Logger
}

// NewOrchestrator creates an orchestrator. A nil conversation log disables logging.
func NewOrchestrator(eng engine.Engine, cfg Config, log ConversationLogger, logger *slog.Logger) *Orchestrator {
	if eng == nil {
		eng = engine.Unconfigured{}
	}
	if log == nil {
		log = noopConversationLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{engine: eng, cfg: cfg, log: log, logger: logger}
}

// Greeting returns the first assistant message for username.
func Greeting(username string, newUser bool) string {
	if newUser {
		return fmt.Sprintf("Welcome %s, ask me anything you want!", username)
	}
	return fmt.Sprintf("Hello %s, I'm glad you're back!", username)
}

// Enter prepares s for the chat page. It binds the engine to the user and, when
// the transcript is still empty, appends the greeting. Calling it again does
// not add a second greeting.
func (o *Orchestrator) Enter(ctx context.Context, s *domain.SessionState) error {
	if !s.LoggedIn || s.Identity == nil {
		return ErrNotLoggedIn
	}

	userID := s.UserID()
	if err := o.engine.Login(ctx, userID, o.cfg.ContextVersion); err != nil {
		o.logger.Warn("Engine login failed",
			"session_id", s.ID,
			"user_id", userID,
			"error", err)
	}

	o.greet(ctx, s, ChannelHTTP)
	return nil
}

// greet appends the greeting to an empty transcript and consumes JustRegistered.
func (o *Orchestrator) greet(ctx context.Context, s *domain.SessionState, channel string) {
	if len(s.Transcript) == 0 {
		greeting := Greeting(s.Username(), s.JustRegistered)
		s.AddMessage(domain.RoleAssistant, greeting)
		o.record(ctx, s, channel, "inbound", "chat_greeting", greeting, map[string]any{
			"new_user": s.JustRegistered,
		})
		o.logger.Debug("Chat greeting added", "session_id", s.ID, "new_user", s.JustRegistered)
	}
	s.JustRegistered = false
}

// Send runs one chat turn: it appends the user message, asks the engine, streams
// the reply through emit and appends the full reply. The reply is stored even
// when ctx is cancelled or emit fails part way, so the transcript always
// alternates user and assistant messages. Turns are only accepted while the
// chat page is the rendered view; a turn that arrives before the greeting was
// shown adds the greeting first.
func (o *Orchestrator) Send(ctx context.Context, s *domain.SessionState, input, channel string, emit Emit) error {
	if !s.LoggedIn || s.Identity == nil {
		return ErrNotLoggedIn
	}
	if nav.View(s) != domain.PageChat {
		return ErrNotOnChatPage
	}
	if strings.TrimSpace(input) == "" {
		return ErrEmptyMessage
	}
	o.greet(ctx, s, channel)

	userID := s.UserID()
	s.AddMessage(domain.RoleUser, input)
	o.record(ctx, s, channel, "outbound", "chat_user_message", input, nil)

	start := time.Now()
	reply, err := o.engine.Respond(ctx, engine.Request{CustomerInput: input, UserID: userID})
	engineErr := ""
	if err != nil || reply == "" {
		if err == nil {
			err = errors.New("empty reply")
		}
		engineErr = err.Error()
		o.logger.Error("Engine respond failed",
			"session_id", s.ID,
			"user_id", userID,
			"error", err)
		reply = FallbackReply
	}
	o.logger.Info("Engine replied",
		"session_id", s.ID,
		"user_id", userID,
		"reply_length", len(reply),
		"duration", time.Since(start))

	chunks, streamErr := o.stream(ctx, reply, emit)

	s.AddMessage(domain.RoleAssistant, reply)
	o.record(ctx, s, channel, "inbound", "chat_assistant_message", reply, map[string]any{
		"stream_chunks": chunks,
		"partial":       streamErr != nil,
		"engine_error":  engineErr,
	})

	if streamErr != nil {
		return fmt.Errorf("stream reply: %w", streamErr)
	}
	return nil
}

func (o *Orchestrator) stream(ctx context.Context, reply string, emit Emit) (int, error) {
	chunks := 0
	for chunk, err := range Stream(ctx, reply, o.cfg.Pacing) {
		if err != nil {
			return chunks, err
		}
		if emit != nil {
			if err := emit(chunk); err != nil {
				return chunks, err
			}
		}
		chunks++
	}
	return chunks, nil
}

func (o *Orchestrator) record(ctx context.Context, s *domain.SessionState, channel, direction, eventType, content string, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	if reqID := chiMiddleware.GetReqID(ctx); reqID != "" {
		meta["request_id"] = reqID
	}
	o.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		UserID:     s.UserID(),
		SessionID:  s.ID,
		Channel:    channel,
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta:       meta,
	})
}
