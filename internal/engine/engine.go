// Package engine defines the answering engine capability and its gRPC client.
package engine

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no answering engine is configured or reachable.
var ErrUnavailable = errors.New("answering engine unavailable")

// Request is a single user message forwarded to the engine.
type Request struct {
	CustomerInput string
	UserID        string
}

// Engine is the answering engine consumed by the chat orchestrator.
// Its internal reasoning and memory are opaque to this service.
type Engine interface {
	// Login binds the engine to a user and context version. Called once per chat-page entry.
	Login(ctx context.Context, userID string, contextVersion int) error

	// Respond returns the complete answer for one user message.
	Respond(ctx context.Context, req Request) (string, error)
}

// Unconfigured is used when ENGINE_ADDR is not set. Every call fails with ErrUnavailable.
type Unconfigured struct{}

// Login implements Engine.
func (Unconfigured) Login(context.Context, string, int) error { return ErrUnavailable }

// Respond implements Engine.
func (Unconfigured) Respond(context.Context, Request) (string, error) { return "", ErrUnavailable }

// Ensure implementations satisfy Engine.
var (
	_ Engine = (*GrpcClient)(nil)
	_ Engine = Unconfigured{}
)
