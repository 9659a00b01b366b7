package mediastore

import (
	"context"
	"errors"
)

var (
	ErrEmptyPayload = errors.New("empty media payload")
	ErrNotImage     = errors.New("payload is not an image")
)

// Store externalizes raw image payloads and returns a durable URL.
// Payloads arrive as base64, optionally wrapped in a data URI.
type Store interface {
	Upload(ctx context.Context, payload string) (string, error)
}
