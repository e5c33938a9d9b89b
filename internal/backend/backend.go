// Package backend assembles the store and change feed from configuration.
package backend

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Tcordeir0/vpsurge-fin/internal/config"
	"github.com/Tcordeir0/vpsurge-fin/internal/feed"
	"github.com/Tcordeir0/vpsurge-fin/internal/store"
)

// Result bundles the built store and feed with their cleanup.
type Result struct {
	Store store.Store
	Feed  feed.Feed

	closers []io.Closer
}

// Close releases every resource the build opened, last first.
func (r *Result) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build constructs the data backend and the change feed named by the config.
// The caller owns the returned Result and must Close it.
func Build(cfg *config.Config) (*Result, error) {
	r := &Result{}

	switch cfg.DataBackend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		r.Store = s
		r.closers = append(r.closers, s)
		slog.Info("Initialized sqlite store", "db_path", cfg.SQLiteDBPath)
	case "memory":
		r.Store = store.NewMemoryStore()
		slog.Info("Initialized in-memory store")
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}

	switch cfg.FeedBackend {
	case "amqp":
		f, err := feed.NewAMQPFeed(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("initialize amqp feed: %w", err)
		}
		r.Feed = f
		r.closers = append(r.closers, f)
		slog.Info("Initialized AMQP change feed",
			"exchange", cfg.AMQPExchange, "queue_prefix", cfg.AMQPQueue)
	case "memory":
		r.Feed = feed.NewMemoryFeed()
		slog.Info("Initialized in-memory change feed")
	default:
		r.Close()
		return nil, fmt.Errorf("unsupported feed backend: %s", cfg.FeedBackend)
	}

	return r, nil
}
