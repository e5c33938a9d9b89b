// Package worker mirrors stored transactions to the spreadsheet export.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Tcordeir0/vpsurge-fin/internal/core"
	"github.com/Tcordeir0/vpsurge-fin/internal/feed"
	"github.com/Tcordeir0/vpsurge-fin/internal/sheets"
	"github.com/Tcordeir0/vpsurge-fin/internal/store"
)

// MirrorQueue exposes the rows still awaiting a spreadsheet copy.
type MirrorQueue interface {
	ListPendingMirror(ctx context.Context, limit int) ([]core.Transaction, error)
	SetMirrorState(ctx context.Context, id int64, state store.MirrorState) error
}

// MirrorConfig holds the worker's pacing knobs.
type MirrorConfig struct {
	// PollInterval is how often to scan for pending rows even without a
	// change event (default: 30s).
	PollInterval time.Duration

	// BatchSize is the max rows mirrored per scan (default: 10).
	BatchSize int
}

func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
	}
}

// Mirror copies pending transactions to the spreadsheet. Change events kick
// an immediate scan; the poll interval catches anything the feed missed.
type Mirror struct {
	queue  MirrorQueue
	writer sheets.TransactionWriter
	feed   feed.Feed
	owner  string
	config MirrorConfig

	kickCh chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	unsub   feed.Unsubscribe
}

// NewMirror builds the worker. feed may be nil, in which case only the poll
// loop drives it.
func NewMirror(queue MirrorQueue, writer sheets.TransactionWriter, f feed.Feed, owner string, config MirrorConfig) *Mirror {
	return &Mirror{
		queue:  queue,
		writer: writer,
		feed:   f,
		owner:  owner,
		config: config,
		kickCh: make(chan struct{}, 1),
	}
}

// Start begins the mirror loop. Returns an error if already running.
func (m *Mirror) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	if m.feed != nil {
		unsub, err := m.feed.Subscribe(m.owner, func(feed.Event) { m.kick() })
		if err != nil {
			slog.WarnContext(ctx, "Mirror feed subscription failed, poll only",
				"owner", m.owner, "error", err)
		} else {
			m.mu.Lock()
			m.unsub = unsub
			m.mu.Unlock()
		}
	}

	go m.runLoop(ctx)

	slog.InfoContext(ctx, "Mirror worker started",
		"poll_interval", m.config.PollInterval,
		"batch_size", m.config.BatchSize)
	return nil
}

// Stop gracefully stops the worker and waits for completion.
func (m *Mirror) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	unsub := m.unsub
	m.unsub = nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	close(m.stopCh)

	select {
	case <-m.doneCh:
		slog.InfoContext(ctx, "Mirror worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	return nil
}

func (m *Mirror) kick() {
	select {
	case m.kickCh <- struct{}{}:
	default:
	}
}

func (m *Mirror) runLoop(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	// Catch up on anything left over from a previous run.
	m.processBatch(ctx)

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-m.kickCh:
			m.processBatch(ctx)
		case <-ticker.C:
			m.processBatch(ctx)
		}
	}
}

func (m *Mirror) processBatch(ctx context.Context) {
	pending, err := m.queue.ListPendingMirror(ctx, m.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list pending mirror rows", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.DebugContext(ctx, "Mirroring batch", "count", len(pending))

	for _, t := range pending {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		ref, err := m.writer.Append(ctx, t)
		if err != nil {
			slog.WarnContext(ctx, "Mirror append failed",
				"id", t.ID, "error", err)
			if markErr := m.queue.SetMirrorState(ctx, t.ID, store.MirrorError); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark mirror error",
					"id", t.ID, "error", markErr)
			}
			continue
		}

		if err := m.queue.SetMirrorState(ctx, t.ID, store.MirrorDone); err != nil {
			slog.ErrorContext(ctx, "Failed to mark row mirrored",
				"id", t.ID, "error", err)
			continue
		}
		slog.InfoContext(ctx, "Mirrored transaction", "id", t.ID, "ref", ref)
	}
}

// ProcessOnce runs a single batch synchronously. Used by tests and one-shot
// invocations.
func (m *Mirror) ProcessOnce(ctx context.Context) {
	m.mu.Lock()
	if m.stopCh == nil {
		m.stopCh = make(chan struct{})
	}
	m.mu.Unlock()
	m.processBatch(ctx)
}
