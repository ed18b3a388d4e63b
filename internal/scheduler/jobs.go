package scheduler

import (
	"context"
	"time"

	"brokerage-backend/internal/application/investments"
	"brokerage-backend/internal/application/pricing"

	"github.com/rs/zerolog/log"
)

const (
	tickTimeout     = 5 * time.Second
	maturityTimeout = 2 * time.Minute
)

// Publisher receives every batch of ticked quotes.
type Publisher interface {
	Publish(ctx context.Context, quotes []pricing.Quote) error
}

// PriceTickJob advances the simulator one step and publishes the new quotes.
type PriceTickJob struct {
	Simulator *pricing.Simulator
	Feed      Publisher
}

func (j *PriceTickJob) Name() string { return "price_tick" }

func (j *PriceTickJob) Run() error {
	quotes := j.Simulator.Tick()
	if j.Feed == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()
	return j.Feed.Publish(ctx, quotes)
}

// MaturityJob pays out investments whose term has ended.
type MaturityJob struct {
	Service *investments.Service
}

func (j *MaturityJob) Name() string { return "investment_maturity" }

func (j *MaturityJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), maturityTimeout)
	defer cancel()
	res, err := j.Service.MatureDue(ctx, j.Service.Clock())
	if err != nil {
		return err
	}
	if res.Due > 0 {
		log.Info().Str("component", "scheduler").Int("due", res.Due).Int("matured", res.Matured).
			Int("failed", res.Failed).Str("paid_out", res.PaidOut.StringFixed(2)).Msg("Maturity sweep finished")
	}
	return nil
}
