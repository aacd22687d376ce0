package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/tabula-backend/internal/platform/logger"
	"github.com/yungbote/tabula-backend/internal/platform/objectstore"
	"github.com/yungbote/tabula-backend/internal/platform/redis"
)

type Clients struct {
	AggregateCache *redis.AggregateCache
	ArchiveStore   objectstore.BlobStore
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var cache *redis.AggregateCache
	if opts := cfg.RedisOptions(); opts.Addr != "" {
		c, err := redis.NewAggregateCache(log, opts)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis aggregate cache: %w", err)
		}
		cache = c
	} else {
		log.Info("REDIS_ADDR not set; aggregate cache disabled")
	}

	// Archive
	store, err := resolveArchiveStore(ctx, log, cfg)
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return Clients{}, err
	}

	return Clients{
		AggregateCache: cache,
		ArchiveStore:   store,
	}, nil
}

func (c *Clients) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.AggregateCache != nil {
		errs = append(errs, c.AggregateCache.Close())
	}
	if closer, ok := c.ArchiveStore.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
