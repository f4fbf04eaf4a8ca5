// Package metadata is a small key/value store in the client database. The
// session store keeps its credentials and user profile here.
package metadata

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	// ListPrefix returns every pair whose key starts with prefix.
	ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error)
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}
