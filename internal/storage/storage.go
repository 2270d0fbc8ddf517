// Package storage persists widget UI state outside the widget instance.
//
// Two scopes exist: durable state (the base-layer choice) survives browser
// restarts and is partitioned by client id; session state (the zoom level)
// lives only as long as a browsing session and is partitioned by session id.
package storage

import "context"

// Store is a string key/value store bound to one scope.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Backend partitions key/value storage into scopes.
type Backend interface {
	Scope(scope string) Store
	Close() error
}
