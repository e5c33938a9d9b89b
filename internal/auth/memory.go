package auth

import (
	"context"
	"sync"
)

// MemoryProvider is an in-process provider whose SignIn and SignOut drive
// OnChange callbacks. It backs tests and local development.
type MemoryProvider struct {
	mu        sync.Mutex
	user      *User
	nextID    int
	callbacks map[int]func(*User)
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{callbacks: make(map[int]func(*User))}
}

func (p *MemoryProvider) Current(_ context.Context) (*User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.user == nil {
		return nil, nil
	}
	u := *p.user
	return &u, nil
}

func (p *MemoryProvider) OnChange(fn func(*User)) Unsubscribe {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.callbacks[id] = fn
	current := p.user
	p.mu.Unlock()

	// Initial delivery with the current state, outside the lock.
	fn(copyUser(current))

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.callbacks, id)
			p.mu.Unlock()
		})
	}
}

// SignIn sets the current user and notifies subscribers.
func (p *MemoryProvider) SignIn(u User) {
	p.setUser(&u)
}

// SignOut clears the current user and notifies subscribers.
func (p *MemoryProvider) SignOut() {
	p.setUser(nil)
}

func (p *MemoryProvider) setUser(u *User) {
	p.mu.Lock()
	p.user = u
	fns := make([]func(*User), 0, len(p.callbacks))
	for _, fn := range p.callbacks {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(copyUser(u))
	}
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
