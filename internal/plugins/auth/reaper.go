package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// sweepTimeout bounds a single DeleteExpired call.
const sweepTimeout = 30 * time.Second

// Reaper periodically deletes expired sessions from a SessionStore.
type Reaper struct {
	sessions SessionStore
	interval time.Duration
}

// NewReaper creates a reaper sweeping every interval.
func NewReaper(sessions SessionStore, interval time.Duration) *Reaper {
	return &Reaper{sessions: sessions, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// It returns early if the store cannot sweep.
func (r *Reaper) Run(ctx context.Context) {
	if !r.sweepAndLog(ctx) {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !r.sweepAndLog(ctx) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sweep deletes expired sessions once and returns how many were removed.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	return r.sessions.DeleteExpired(ctx)
}

// sweepAndLog runs one sweep and reports whether the reaper should keep
// running.
func (r *Reaper) sweepAndLog(ctx context.Context) bool {
	n, err := r.Sweep(ctx)
	switch {
	case errors.Is(err, ErrSweepNotSupported):
		slog.Info("session store expires sessions itself, reaper stopping")
		return false
	case err != nil:
		if ctx.Err() == nil {
			slog.Warn("session sweep failed", slog.Any("error", err))
		}
	case n > 0:
		slog.Info("expired sessions removed", slog.Int64("count", n))
	}
	return true
}
