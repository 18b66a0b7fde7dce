// Package metadata is the client's durable key/value storage. It holds the
// token entries and the serialized session snapshot.
package metadata

import (
	"context"
)

// Repository is a flat byte-value store. Get on a missing key returns
// (nil, nil). SetMany, DeleteMany and Update apply all changes or none.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error

	SetMany(ctx context.Context, values map[string][]byte) error
	DeleteMany(ctx context.Context, keys ...string) error
	// Update writes values and removes keys in one batch.
	Update(ctx context.Context, values map[string][]byte, keys ...string) error
}
