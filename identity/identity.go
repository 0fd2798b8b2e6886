package identity

import (
	"context"
	"errors"
)

// ErrInvalidToken - the upstream identity provider rejected the credential.
var ErrInvalidToken = errors.New("identity token rejected")

// Profile is what the service keeps about an authenticated user: a display
// name. Everything else stays with the provider.
type Profile struct {
	DisplayName string
	Username    string
}

// Resolver turns an upstream auth token into a profile. Guests skip this
// entirely - they just bring a display name.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Profile, error)
}
