package feed

import (
	"context"
	"sync"
)

// MemoryFeed is an in-process feed for the default backend and tests.
// Delivery is synchronous: Publish invokes matching callbacks before it
// returns.
type MemoryFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	owner string
	fn    func(Event)
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[int]subscription)}
}

func (f *MemoryFeed) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	fns := make([]func(Event), 0, len(f.subs))
	for _, s := range f.subs {
		if s.owner == ev.Owner {
			fns = append(fns, s.fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return nil
}

func (f *MemoryFeed) Subscribe(owner string, fn func(Event)) (Unsubscribe, error) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = subscription{owner: owner, fn: fn}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}, nil
}
