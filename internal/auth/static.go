package auth

import "context"

// StaticProvider serves a fixed identity for single-tenant deployments where
// the owner comes from configuration. The identity never changes, so
// OnChange fires exactly once.
type StaticProvider struct {
	user User
}

// NewStaticProvider returns a provider pinned to the given identity.
func NewStaticProvider(id, email string) *StaticProvider {
	return &StaticProvider{user: User{ID: id, Email: email}}
}

func (p *StaticProvider) Current(_ context.Context) (*User, error) {
	u := p.user
	return &u, nil
}

func (p *StaticProvider) OnChange(fn func(*User)) Unsubscribe {
	u := p.user
	fn(&u)
	return func() {}
}
