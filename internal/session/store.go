// Package session persists the logged-in user between runs of the client.
package session

import "context"

// Store is a small persistent key/value store, the local counterpart of
// browser storage. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
