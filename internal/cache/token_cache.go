package cache

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/models"
)

const TokenCachePrefix = "auth-token-"

// TokenCache maps token keys to the owning user so authentication skips the DB.
// A nil *TokenCache is valid and never hits.
type TokenCache struct {
	users *PrefixedCache[models.User]
}

func NewTokenCache(cfg *config.Config) *TokenCache {
	if cfg.TokenCacheTTL <= 0 {
		return nil
	}
	return &TokenCache{
		users: NewPrefixedCache[models.User](New(cfg), TokenCachePrefix, cfg.TokenCacheTTL),
	}
}

func (t *TokenCache) Get(ctx context.Context, key string) (*models.User, bool) {
	if t == nil {
		return nil, false
	}
	user, err := t.users.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return &user, true
}

func (t *TokenCache) Put(ctx context.Context, key string, user *models.User) {
	if t == nil {
		return
	}
	if err := t.users.Set(ctx, key, *user); err != nil {
		slog.Warn("token cache write failed", "error", err, "backend", t.users.GetType())
	}
}

func (t *TokenCache) Forget(ctx context.Context, key string) {
	if t == nil {
		return
	}
	if err := t.users.Delete(ctx, key); err != nil {
		slog.Warn("token cache delete failed", "error", err, "backend", t.users.GetType())
	}
}
