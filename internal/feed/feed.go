// Package feed is the change-notification channel: a push event on every
// insert, update, and delete of a transaction row, scoped by owner. Events
// are trigger signals only; consumers refresh from the store rather than
// applying payloads.
package feed

import (
	"context"
	"encoding/json"
	"time"
)

// Op is the mutation type an event announces.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event announces one row change. Only Owner is load-bearing for routing;
// ID and Op travel along for logging.
type Event struct {
	Owner string    `json:"owner"`
	Op    Op        `json:"op"`
	ID    int64     `json:"id"`
	At    time.Time `json:"at"`
}

// Unsubscribe tears down a subscription. Safe to call more than once.
type Unsubscribe func()

// Publisher emits events after successful mutations.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Feed is the full change-notification port: publish plus owner-scoped
// subscribe. Exactly one subscription per consumer identity at a time is the
// expected usage; the consumer unsubscribes before resubscribing under a new
// owner.
type Feed interface {
	Publisher

	// Subscribe delivers every event whose Owner matches until the returned
	// handle is called. Callbacks must be quick; long work belongs on the
	// consumer's side of a channel.
	Subscribe(owner string, fn func(Event)) (Unsubscribe, error)
}

// NewEvent stamps an event with the current time.
func NewEvent(owner string, op Op, id int64) Event {
	return Event{Owner: owner, Op: op, ID: id, At: time.Now()}
}

// Marshal encodes an event for the wire.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes an event from the wire.
func UnmarshalEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}
