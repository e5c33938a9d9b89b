package feed

import (
	"context"
	"testing"
)

func TestMemoryFeedScopesByOwner(t *testing.T) {
	ctx := context.Background()
	f := NewMemoryFeed()

	var got []Event
	unsub, err := f.Subscribe("u1", func(ev Event) { got = append(got, ev) })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	if err := f.Publish(ctx, NewEvent("u1", OpInsert, 1)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := f.Publish(ctx, NewEvent("someone-else", OpInsert, 2)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("received %d events, want 1", len(got))
	}
	if got[0].Owner != "u1" || got[0].Op != OpInsert || got[0].ID != 1 {
		t.Fatalf("unexpected event %+v", got[0])
	}
}

func TestMemoryFeedUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	f := NewMemoryFeed()

	count := 0
	unsub, err := f.Subscribe("u1", func(Event) { count++ })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	f.Publish(ctx, NewEvent("u1", OpInsert, 1))
	unsub()
	unsub() // double call must be safe
	f.Publish(ctx, NewEvent("u1", OpDelete, 1))

	if count != 1 {
		t.Fatalf("received %d events, want 1", count)
	}
}

func TestEventRoundTrip(t *testing.T) {
	ev := NewEvent("u1", OpUpdate, 42)
	body, err := ev.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := UnmarshalEvent(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Owner != ev.Owner || back.Op != ev.Op || back.ID != ev.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, ev)
	}
}
