package notify

import (
	"context"
	"sync"
	"time"
)

// Ring keeps the most recent notifications in a bounded in-memory buffer so
// the HTTP API can hand them to the SPA as toasts. Draining empties the
// buffer; messages are never stored anywhere else.
type Ring struct {
	mu       sync.Mutex
	capacity int
	messages []Message
}

// NewRing returns a ring holding at most capacity undelivered messages.
// Older messages are dropped first when the buffer is full.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{capacity: capacity}
}

func (r *Ring) Success(_ context.Context, text string) { r.push(LevelSuccess, text) }
func (r *Ring) Error(_ context.Context, text string)   { r.push(LevelError, text) }
func (r *Ring) Info(_ context.Context, text string)    { r.push(LevelInfo, text) }

func (r *Ring) push(level Level, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: text, At: time.Now()})
	if len(r.messages) > r.capacity {
		r.messages = r.messages[len(r.messages)-r.capacity:]
	}
}

// Drain returns all pending messages and empties the buffer.
func (r *Ring) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.messages
	r.messages = nil
	return out
}
