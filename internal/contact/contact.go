// Package contact forwards the home page contact form to an external mail relay.
package contact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrIncomplete is returned when a required field is blank.
var ErrIncomplete = errors.New("name, email and message are required")

// Message is one contact form submission.
type Message struct {
	Name    string
	Email   string
	Message string
}

// Relay posts contact messages to a form relay endpoint. The relay's response
// body is ignored; only transport failures and non-2xx statuses are reported.
type Relay struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewRelay creates a relay posting to endpoint.
func NewRelay(endpoint string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Validate trims m and checks that every field is filled in.
func (m *Message) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Message = strings.TrimSpace(m.Message)
	if m.Name == "" || m.Email == "" || m.Message == "" {
		return ErrIncomplete
	}
	return nil
}

// Send posts m to the relay as a url-encoded form.
func (r *Relay) Send(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("name", m.Name)
	form.Set("email", m.Email)
	form.Set("message", m.Message)
	form.Set("_captcha", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to relay: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay responded with status %d", resp.StatusCode)
	}
	return nil
}

// SendAsync posts m in the background. The caller's cancellation does not
// abort the post; failures are logged.
func (r *Relay) SendAsync(ctx context.Context, m Message) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, r.client.Timeout)
		defer cancel()
		if err := r.Send(ctx, m); err != nil {
			r.logger.Warn("Contact relay failed", "error", err)
			return
		}
		r.logger.Info("Contact message relayed")
	}()
}
