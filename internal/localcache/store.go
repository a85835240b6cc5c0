// Package localcache provides the durable string-keyed blob stores backing a storefront
// session: the cached cart snapshot and the persisted user identity.
package localcache

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/krislybeauty/storefront/pkg/config"
	"github.com/krislybeauty/storefront/pkg/db"
	"github.com/krislybeauty/storefront/pkg/logger"
	"github.com/krislybeauty/storefront/pkg/redis"
)

// Store is a durable key/value blob store. Get reports found=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store selected by cfg.Cache.Driver. The returned closer releases the
// underlying connection.
func Open(ctx context.Context, cfg config.Config, logg *logger.Logger) (Store, io.Closer, error) {
	namespace := strings.TrimSpace(cfg.Cache.Namespace)
	switch strings.ToLower(strings.TrimSpace(cfg.Cache.Driver)) {
	case config.CacheDriverMemory:
		return NewMemory(), nopCloser{}, nil
	case config.CacheDriverSQLite, config.CacheDriverPostgres:
		client, err := db.New(ctx, cfg.Cache, logg)
		if err != nil {
			return nil, nil, err
		}
		store := NewSQLStore(client, namespace)
		if err := store.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client, nil
	case config.CacheDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, namespace), client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}
}
