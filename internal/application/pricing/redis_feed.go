package pricing

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const feedPrefix = "prices:"

// RedisFeed shares the latest prices between API instances through one Redis hash per asset type.
type RedisFeed struct {
	Rdb *redis.Client
}

func feedKey(assetType string) string {
	return feedPrefix + strings.ToLower(strings.TrimSpace(assetType))
}

// Publish writes quotes in a single pipeline.
func (f *RedisFeed) Publish(ctx context.Context, quotes []Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	pipe := f.Rdb.Pipeline()
	for _, q := range quotes {
		pipe.HSet(ctx, feedKey(q.AssetType), strings.ToUpper(q.Symbol), q.Price.String())
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (f *RedisFeed) Price(ctx context.Context, assetType, symbol string) (decimal.Decimal, error) {
	s, err := f.Rdb.HGet(ctx, feedKey(assetType), strings.ToUpper(strings.TrimSpace(symbol))).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}

// Count returns how many prices are published for the given asset types.
func (f *RedisFeed) Count(ctx context.Context, assetTypes ...string) (int64, error) {
	var total int64
	for _, t := range assetTypes {
		n, err := f.Rdb.HLen(ctx, feedKey(t)).Result()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
