// Package auth holds the admin login policy and the cookie session that
// carries an authenticated admin between requests.
//
// The default policy performs no credential check: presenting a username is
// enough. Handlers depend on the Authenticator interface so a real check can
// replace it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contributi/internal/core"
)

// ErrUnknownAdmin is returned when a username is not allowed to log in.
var ErrUnknownAdmin = errors.New("unknown admin")

// AdminStore reads and lazily creates admin identities.
type AdminStore interface {
	GetOrCreateAdmin(ctx context.Context, username string) (core.Admin, error)
	GetAdmin(ctx context.Context, id int64) (core.Admin, error)
}

// Authenticator turns a login form into an admin identity.
type Authenticator interface {
	Authenticate(ctx context.Context, username string) (core.Admin, error)
}

// UsernameAuthenticator accepts any non-empty username, or only Allowed
// when it is set, and creates the admin on first login.
type UsernameAuthenticator struct {
	admins  AdminStore
	allowed string
}

func NewUsernameAuthenticator(admins AdminStore, allowed string) *UsernameAuthenticator {
	return &UsernameAuthenticator{admins: admins, allowed: strings.TrimSpace(allowed)}
}

// Restricted reports whether only a single username may log in.
func (a *UsernameAuthenticator) Restricted() bool {
	return a.allowed != ""
}

func (a *UsernameAuthenticator) Authenticate(ctx context.Context, username string) (core.Admin, error) {
	candidate := core.Admin{Username: strings.TrimSpace(username)}
	if err := candidate.Validate(); err != nil {
		return core.Admin{}, core.Invalid(err)
	}
	if a.allowed != "" && candidate.Username != a.allowed {
		return core.Admin{}, ErrUnknownAdmin
	}

	admin, err := a.admins.GetOrCreateAdmin(ctx, candidate.Username)
	if err != nil {
		return core.Admin{}, fmt.Errorf("load admin: %w", err)
	}
	return admin, nil
}
