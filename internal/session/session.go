// Package session defines the identity context that gates which
// backing store the task store uses.
package session

import (
	"context"
	"errors"
)

// ErrRemoteDisabled is returned by the local-only gateway when a remote
// operation is attempted without a configured identity provider.
var ErrRemoteDisabled = errors.New("remote sync is not configured")

// Identity is the current authenticated user.
type Identity struct {
	UID   string
	Email string
}

// Gateway wraps the external identity provider. Implementations notify
// listeners on every identity change; the task store treats each
// notification as authoritative and re-derives its adapter from it.
type Gateway interface {
	// Current returns the authenticated identity, or nil when none.
	Current() *Identity

	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, email, password string) error
	Logout() error

	// OnChange registers fn to run on every identity transition. The
	// returned func unregisters it.
	OnChange(fn func(*Identity)) (cancel func())
}

// LocalOnly is the gateway used when no identity provider is
// configured: the identity is permanently absent, so the store always
// selects the local adapter.
type LocalOnly struct{}

func (LocalOnly) Current() *Identity { return nil }

func (LocalOnly) Login(ctx context.Context, email, password string) error {
	return ErrRemoteDisabled
}

func (LocalOnly) Signup(ctx context.Context, email, password string) error {
	return ErrRemoteDisabled
}

func (LocalOnly) Logout() error { return nil }

func (LocalOnly) OnChange(fn func(*Identity)) (cancel func()) {
	return func() {}
}
