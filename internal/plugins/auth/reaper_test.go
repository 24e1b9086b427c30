package auth

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// countingSweeper is a SessionStore whose DeleteExpired counts calls.
type countingSweeper struct {
	*memSessionStore
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) DeleteExpired(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return c.memSessionStore.DeleteExpired(ctx)
}

func TestReaper_SweepRemovesOnlyExpired(t *testing.T) {
	sessions := newMemSessionStore()
	ctx := context.Background()

	_, _ = sessions.Create(ctx, "u-1", "expired-token-1", time.Now().Add(-time.Millisecond))
	_, _ = sessions.Create(ctx, "u-1", "expired-token-2", time.Now().Add(-time.Hour))
	_, _ = sessions.Create(ctx, "u-1", "live-token-0001", time.Now().Add(time.Hour))

	n, err := NewReaper(sessions, time.Minute).Sweep(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 expired sessions removed, got %d", n)
	}
	if _, err := sessions.FindValidByToken(ctx, "live-token-0001"); err != nil {
		t.Errorf("live session should survive the sweep: %v", err)
	}
}

func TestReaper_RunStopsOnContextCancel(t *testing.T) {
	store := &countingSweeper{memSessionStore: newMemSessionStore()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewReaper(store, 10*time.Millisecond).Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
	if store.calls.Load() < 2 {
		t.Errorf("expected repeated sweeps, got %d", store.calls.Load())
	}
}

func TestReaper_RunStopsWhenSweepUnsupported(t *testing.T) {
	store := &countingSweeper{memSessionStore: newMemSessionStore(), err: ErrSweepNotSupported}

	done := make(chan struct{})
	go func() {
		NewReaper(store, time.Millisecond).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper kept running against a store that cannot sweep")
	}
	if got := store.calls.Load(); got != 1 {
		t.Errorf("expected a single sweep attempt, got %d", got)
	}
}
