package session

import (
	"context"
	"time"
)

// StartSweeper runs a background goroutine that periodically deletes sessions
// idle for longer than the manager's TTL.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		m.logger.Info("Session sweeper started", "interval", interval, "ttl", m.cfg.TTL)

		for {
			select {
			case <-ticker.C:
				m.Sweep(ctx)
			case <-ctx.Done():
				m.logger.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Sweep deletes expired sessions once and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) int64 {
	deleted, err := m.repo.DeleteExpiredSessions(ctx, m.cfg.TTL)
	if err != nil {
		if ctx.Err() != nil {
			m.logger.Debug("Session sweep interrupted", "error", err)
			return 0
		}
		m.logger.Error("Session sweep failed", "error", err)
		return 0
	}

	pruned := m.pruneLocks()
	if deleted > 0 || pruned > 0 {
		m.logger.Info("Session sweep completed", "deleted", deleted, "locks_pruned", pruned)
	}
	return deleted
}
