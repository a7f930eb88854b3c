// Package store provides the persistent key-value store the directory runs
// against: a Postgres-backed implementation for production and an in-memory
// one for tests and storage-less development.
package store

import "context"

// KV is the composite-key view handed to a transaction callback.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store runs callbacks against the KV. Update is transactional: if the
// callback returns an error, none of its writes survive.
type Store interface {
	View(ctx context.Context, fn func(kv KV) error) error
	Update(ctx context.Context, fn func(kv KV) error) error
	Ping(ctx context.Context) error
	Close() error
}
