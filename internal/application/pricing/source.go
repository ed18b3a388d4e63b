package pricing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AssetStock  = "stock"
	AssetCrypto = "crypto"
)

// Source answers the current price of an asset. Untracked assets price at zero with a nil error.
type Source interface {
	Price(ctx context.Context, assetType, symbol string) (decimal.Decimal, error)
}

// Key normalises an (assetType, symbol) pair.
func Key(assetType, symbol string) string {
	return strings.ToLower(strings.TrimSpace(assetType)) + ":" + strings.ToUpper(strings.TrimSpace(symbol))
}

// Fixed is a static price table.
type Fixed map[string]decimal.Decimal

func (f Fixed) Price(_ context.Context, assetType, symbol string) (decimal.Decimal, error) {
	if p, ok := f[Key(assetType, symbol)]; ok {
		return p, nil
	}
	return decimal.Zero, nil
}

// Chain asks each source in order and returns the first non-zero price.
type Chain []Source

func (c Chain) Price(ctx context.Context, assetType, symbol string) (decimal.Decimal, error) {
	var firstErr error
	for _, s := range c {
		p, err := s.Price(ctx, assetType, symbol)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if p.IsPositive() {
			return p, nil
		}
	}
	return decimal.Zero, firstErr
}
