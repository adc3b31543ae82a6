package session

import (
	"context"
	"fmt"
	"log"

	"github.com/zhouzirui/investor-interview/backend/internal/config"
)

// New opens the store selected by configuration.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreRedis:
		client, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		log.Printf("[session] using redis store at %s", cfg.RedisAddr)
		return NewRedisStore(client, "", cfg.TTL), nil
	case config.StoreSQLite:
		store, err := OpenSQLite(ctx, cfg.SQLitePath, cfg.TTL)
		if err != nil {
			return nil, err
		}
		log.Printf("[session] using sqlite store at %s", cfg.SQLitePath)
		return store, nil
	case config.StoreMemory, "":
		log.Printf("[session] using in-memory store (size=%d)", cfg.CacheSize)
		return NewMemoryStore(cfg.CacheSize, cfg.TTL)
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Backend)
	}
}
