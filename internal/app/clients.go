package app

import (
	"context"
	"fmt"

	"github.com/yungbote/techlearn-backend/internal/platform/blob"
	"github.com/yungbote/techlearn-backend/internal/platform/cache"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/platform/openai"
)

type Clients struct {
	Store  blob.Store
	Oracle openai.Oracle
	Cache  cache.Cache

	closeStore func() error
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Object storage
	store, closeStore, err := resolveBlobStore(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// Openai
	oracle := openai.NewClient(log, cfg.OpenAI)

	// Redis
	var c cache.Cache = cache.Nop()
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(log, cfg.RedisAddr, ServiceName)
		if err != nil {
			_ = closeStore()
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
		c = rc
	} else {
		log.Info("REDIS_ADDR not set; analytics cache disabled")
	}

	return Clients{
		Store:      store,
		Oracle:     oracle,
		Cache:      c,
		closeStore: closeStore,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.closeStore != nil {
		_ = c.closeStore()
	}
}
