package pricing

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultReversion  = 0.05
	defaultVolatility = 0.01
	clampBand         = 0.30
)

// Quote is the latest simulated price of an asset.
type Quote struct {
	AssetType string          `json:"asset_type"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Base      decimal.Decimal `json:"base_price"`
	ChangePct decimal.Decimal `json:"change_pct"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Simulator moves each price by a mean-reverting random walk, clamped to ±30% of base.
// Reads take a read lock only for the map lookup, so they never wait on a whole tick.
type Simulator struct {
	Reversion  float64
	Volatility float64
	Now        func() time.Time

	mu     sync.RWMutex
	quotes map[string]Quote
	places map[string]int32

	tickMu sync.Mutex
	rng    *rand.Rand
}

func NewSimulator(assets []Asset, seed int64) *Simulator {
	s := &Simulator{
		Reversion:  defaultReversion,
		Volatility: defaultVolatility,
		Now:        time.Now,
		quotes:     make(map[string]Quote, len(assets)),
		places:     make(map[string]int32, len(assets)),
		rng:        rand.New(rand.NewSource(seed)),
	}
	now := s.Now().UTC()
	for _, a := range assets {
		k := Key(a.AssetType, a.Symbol)
		s.quotes[k] = Quote{
			AssetType: a.AssetType,
			Symbol:    a.Symbol,
			Name:      a.Name,
			Price:     a.Base,
			Base:      a.Base,
			UpdatedAt: now,
		}
		s.places[k] = a.Places
	}
	return s
}

func (s *Simulator) Price(_ context.Context, assetType, symbol string) (decimal.Decimal, error) {
	s.mu.RLock()
	q, ok := s.quotes[Key(assetType, symbol)]
	s.mu.RUnlock()
	if !ok {
		return decimal.Zero, nil
	}
	return q.Price, nil
}

// Quote returns the latest quote for one asset.
func (s *Simulator) Quote(assetType, symbol string) (Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[Key(assetType, symbol)]
	return q, ok
}

// Quotes returns all quotes ordered by asset type then symbol.
func (s *Simulator) Quotes() []Quote {
	s.mu.RLock()
	out := make([]Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		out = append(out, q)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssetType != out[j].AssetType {
			return out[i].AssetType < out[j].AssetType
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Tick advances every price one step and returns the new quotes.
func (s *Simulator) Tick() []Quote {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	current := s.Quotes()
	now := s.Now().UTC()
	next := make([]Quote, len(current))
	for i, q := range current {
		next[i] = s.step(q, now)
	}

	s.mu.Lock()
	for _, q := range next {
		s.quotes[Key(q.AssetType, q.Symbol)] = q
	}
	s.mu.Unlock()
	return next
}

func (s *Simulator) step(q Quote, now time.Time) Quote {
	cur, _ := q.Price.Float64()
	base, _ := q.Base.Float64()

	v := cur + s.Reversion*(base-cur) + cur*s.Volatility*s.rng.NormFloat64()
	v = math.Max(base*(1-clampBand), math.Min(base*(1+clampBand), v))

	price := decimal.NewFromFloat(v).Round(s.places[Key(q.AssetType, q.Symbol)])
	// Rounding can push a clamped value just past the band edge.
	lo := q.Base.Mul(decimal.NewFromFloat(1 - clampBand))
	hi := q.Base.Mul(decimal.NewFromFloat(1 + clampBand))
	if price.LessThan(lo) {
		price = lo
	} else if price.GreaterThan(hi) {
		price = hi
	}

	q.Price = price
	q.ChangePct = percentChange(price, q.Base)
	q.UpdatedAt = now
	return q
}

func percentChange(price, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return price.Sub(base).Div(base).Mul(decimal.NewFromInt(100)).Round(2)
}
