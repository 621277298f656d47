// Package session holds signed-in user state for the admin surface.
//
// A Manager owns the lifecycle: Login hydrates a session from the user
// directory, Current reads it back, Logout clears it. Where the session
// bytes live is decided by the Backend, in-process memory for a single
// server or Redis when several servers share sessions.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Backend for a missing or expired key.
var ErrNotFound = errors.New("session not found")

// Backend stores opaque session payloads with an expiry.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
