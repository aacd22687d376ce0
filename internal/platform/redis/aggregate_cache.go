package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/tabula-backend/internal/domain/dataset"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

const (
	keyPrefix = "agg:"
	nullValue = "null"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// AggregateCache stores aggregate results in one hash per dataset so an
// upload can drop every cached value for its filename with a single DEL.
type AggregateCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewAggregateCache(log *logger.Logger, opts Options) (*AggregateCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AggregateCache{
		log: log.With("service", "RedisAggregateCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *AggregateCache) Get(ctx context.Context, filename, column string, op dataset.AggregateOp) (json.Number, bool, error) {
	raw, err := c.rdb.HGet(ctx, hashKey(filename), field(column, op)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	v, ok := decodeValue(raw)
	if !ok {
		return "", false, nil
	}
	return v, true, nil
}

func (c *AggregateCache) Set(ctx context.Context, filename, column string, op dataset.AggregateOp, value json.Number) error {
	key := hashKey(filename)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, field(column, op), encodeValue(value))
	pipe.Expire(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *AggregateCache) Invalidate(ctx context.Context, filename string) error {
	return c.rdb.Del(ctx, hashKey(filename)).Err()
}

func (c *AggregateCache) Close() error {
	return c.rdb.Close()
}

func hashKey(filename string) string { return keyPrefix + filename }

// field puts the operation first; operations never contain '|'.
func field(column string, op dataset.AggregateOp) string { return string(op) + "|" + column }

// Values are stored as their decimal text so large integers survive.
func encodeValue(v json.Number) string {
	if v == "" {
		return nullValue
	}
	return v.String()
}

func decodeValue(raw string) (json.Number, bool) {
	if raw == nullValue {
		return "", true
	}
	n := json.Number(raw)
	if _, err := n.Float64(); err != nil {
		return "", false
	}
	return n, true
}
