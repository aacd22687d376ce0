package services

import (
	"context"
	"encoding/json"

	"github.com/yungbote/tabula-backend/internal/domain/dataset"
)

// AggregateCache memoizes aggregate results per dataset. An empty value with
// hit=true is a cached "no numeric values" answer.
type AggregateCache interface {
	Get(ctx context.Context, filename, column string, op dataset.AggregateOp) (value json.Number, hit bool, err error)
	Set(ctx context.Context, filename, column string, op dataset.AggregateOp, value json.Number) error
	Invalidate(ctx context.Context, filename string) error
}

type noopAggregateCache struct{}

// NoopAggregateCache never hits.
func NoopAggregateCache() AggregateCache { return noopAggregateCache{} }

func (noopAggregateCache) Get(context.Context, string, string, dataset.AggregateOp) (json.Number, bool, error) {
	return "", false, nil
}

func (noopAggregateCache) Set(context.Context, string, string, dataset.AggregateOp, json.Number) error {
	return nil
}

func (noopAggregateCache) Invalidate(context.Context, string) error { return nil }
