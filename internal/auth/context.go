// ABOUTME: Request context helpers carrying the authenticated identity
// ABOUTME: Provides WithIdentity/IdentityFromContext and the Authorize check

package auth

import (
	"context"
	"errors"
)

// ErrForbidden is returned when a token's identity does not match the target.
var ErrForbidden = errors.New("identity mismatch")

// ErrUnauthenticated is returned when authentication is required but absent.
var ErrUnauthenticated = errors.New("not authenticated")

type identityKey struct{}

type authMode struct{ required bool }

type authModeKey struct{}

// WithIdentity returns a new context carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the authenticated identity, or "" if none.
func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey{}).(string)
	return identity
}

func withRequired(ctx context.Context) context.Context {
	return context.WithValue(ctx, authModeKey{}, authMode{required: true})
}

// Authorize checks that the request may act on target. Requests that did not
// pass through an enforcing Middleware are always allowed.
func Authorize(ctx context.Context, target string) error {
	mode, _ := ctx.Value(authModeKey{}).(authMode)
	if !mode.required {
		return nil
	}

	identity := IdentityFromContext(ctx)
	if identity == "" {
		return ErrUnauthenticated
	}
	if identity != target {
		return ErrForbidden
	}
	return nil
}
