package notify

import (
	"context"
	"testing"
)

func TestRingDrain(t *testing.T) {
	ctx := context.Background()
	r := NewRing(10)
	r.Success(ctx, "saved")
	r.Error(ctx, "boom")

	msgs := r.Drain()
	if len(msgs) != 2 {
		t.Fatalf("drained %d messages, want 2", len(msgs))
	}
	if msgs[0].Level != LevelSuccess || msgs[0].Text != "saved" {
		t.Fatalf("first message = %+v", msgs[0])
	}
	if msgs[1].Level != LevelError {
		t.Fatalf("second message = %+v", msgs[1])
	}

	if again := r.Drain(); len(again) != 0 {
		t.Fatalf("second drain returned %d messages, want 0", len(again))
	}
}

func TestRingDropsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	r := NewRing(2)
	r.Info(ctx, "one")
	r.Info(ctx, "two")
	r.Info(ctx, "three")

	msgs := r.Drain()
	if len(msgs) != 2 {
		t.Fatalf("drained %d messages, want 2", len(msgs))
	}
	if msgs[0].Text != "two" || msgs[1].Text != "three" {
		t.Fatalf("kept wrong messages: %+v", msgs)
	}
}
