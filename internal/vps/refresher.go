package vps

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Refresher re-rolls every server status on a fixed interval, keeping the
// panel lively without user interaction.
type Refresher struct {
	manager  *Manager
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRefresher(manager *Manager, interval time.Duration) *Refresher {
	return &Refresher{manager: manager, interval: interval}
}

// Start begins the refresh loop. Returns an error if already running.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("vps refresher is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "VPS refresher started", "interval", r.interval)
	return nil
}

// Stop gracefully stops the loop and waits for completion.
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	close(r.stopCh)

	select {
	case <-r.doneCh:
		slog.InfoContext(ctx, "VPS refresher stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "VPS refresher stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	return nil
}

func (r *Refresher) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.manager.RefreshAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic status refresh failed", "error", err)
			}
		}
	}
}
