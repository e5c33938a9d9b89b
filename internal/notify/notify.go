// Package notify is the transient user-facing notification channel. Every
// mutation outcome produces exactly one message; nothing is persisted or
// queryable after delivery.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Level classifies a notification for the UI.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is a single toast-style notification.
type Message struct {
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Notifier delivers transient messages to the user.
type Notifier interface {
	Success(ctx context.Context, text string)
	Error(ctx context.Context, text string)
	Info(ctx context.Context, text string)
}

// SlogNotifier writes notifications to the structured log. Used by the
// worker binaries, which have no UI surface.
type SlogNotifier struct{}

func (SlogNotifier) Success(ctx context.Context, text string) {
	slog.InfoContext(ctx, "notification", "level", LevelSuccess, "text", text)
}

func (SlogNotifier) Error(ctx context.Context, text string) {
	slog.WarnContext(ctx, "notification", "level", LevelError, "text", text)
}

func (SlogNotifier) Info(ctx context.Context, text string) {
	slog.InfoContext(ctx, "notification", "level", LevelInfo, "text", text)
}
