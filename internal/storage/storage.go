package storage

import (
	"context"
	"errors"
	"fmt"

	appconfig "github.com/ahmetcoskunkizilkaya/recipe-backend/internal/config"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Store persists uploaded media under slash-separated keys.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// New returns the Store selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *appconfig.Config) (Store, error) {
	switch cfg.StorageBackend {
	case appconfig.StorageS3:
		return NewS3Store(ctx, cfg)
	case appconfig.StorageLocal:
		return NewLocalStore(cfg.MediaRoot), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
