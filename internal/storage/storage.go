// Package storage provides the byte stores that persist fixtures. Keys are
// slash-separated paths such as Responses/Create/createWithAllFields.json.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/theroutercompany/goldenapi/internal/config"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a key-value byte store. Implementations do not coordinate
// concurrent writers to the same key; the last Put wins.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open creates the backend selected by cfg. The returned closer releases
// connections held by the backend.
func Open(ctx context.Context, cfg config.Storage) (Backend, io.Closer, error) {
	switch cfg.Backend {
	case "", config.BackendDir:
		dir, err := NewDir(cfg.Root)
		if err != nil {
			return nil, nil, err
		}
		return dir, nopCloser{}, nil
	case config.BackendMemory:
		return NewMemory(), nopCloser{}, nil
	case config.BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.Root, "fixtures.sqlite")
		}
		store, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.BackendRedis:
		store, err := OpenRedis(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s (supported: dir, memory, sqlite, redis)", cfg.Backend)
	}
}
