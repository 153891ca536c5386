// Package sim drives concurrent order traffic against an engine: every
// simulated requester is one task on a worker pool, places its orders and is
// released when done.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	. "stockroom/internal/common"
	"stockroom/internal/engine"
	"stockroom/internal/utils"
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrInvalidPlan        = errors.New("invalid plan")
)

// Plan describes one simulated run.
type Plan struct {
	Product            string
	Amount             int64
	Requesters         int
	Workers            int
	OrdersPerRequester int
}

func (p Plan) validate() error {
	if p.Requesters <= 0 || p.Workers <= 0 || p.OrdersPerRequester <= 0 {
		return fmt.Errorf("requesters=%d workers=%d orders=%d: %w",
			p.Requesters, p.Workers, p.OrdersPerRequester, ErrInvalidPlan)
	}
	return nil
}

// Summary is what a run observed. Consistent reports whether the ledger
// conserved stock: Final == Initial - FulfilledAmount.
type Summary struct {
	Product            string
	Initial            int64
	Final              int64
	Fulfilled          int
	Insufficient       int
	NotFound           int
	Violations         int
	AggregatorFailures int
	FulfilledAmount    int64
	LiveRequesters     int
	Consistent         bool
}

type tally struct {
	fulfilled          atomic.Int64
	insufficient       atomic.Int64
	notFound           atomic.Int64
	violations         atomic.Int64
	aggregatorFailures atomic.Int64
	fulfilledAmount    atomic.Int64
}

type requesterTask struct {
	scope RequesterID
}

type Runner struct {
	engine *engine.Engine
}

func NewRunner(eng *engine.Engine) *Runner {
	return &Runner{engine: eng}
}

// Run places plan.Requesters * plan.OrdersPerRequester orders concurrently
// and blocks until all of them are done or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, plan Plan) (Summary, error) {
	if err := plan.validate(); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Product: plan.Product,
		Initial: r.engine.Stock(plan.Product),
	}

	var counts tally
	t, _ := tomb.WithContext(ctx)
	pool := utils.NewWorkerPool(uint(plan.Workers))
	pool.Setup(t, func(t *tomb.Tomb, task any) error {
		req, ok := task.(requesterTask)
		if !ok {
			return ErrImproperConversion
		}
		r.serve(t, plan, req.scope, &counts)
		return nil
	})

	log.Info().
		Str("product", plan.Product).
		Int64("amount", plan.Amount).
		Int("requesters", plan.Requesters).
		Int("workers", pool.Size()).
		Int64("initial", summary.Initial).
		Msg("simulation starting")

	for i := 0; i < plan.Requesters; i++ {
		scope := RequesterID(uuid.New().String())
		if err := pool.AddTask(t, requesterTask{scope: scope}); err != nil {
			break
		}
	}
	pool.Close()

	err := t.Wait()

	summary.Fulfilled = int(counts.fulfilled.Load())
	summary.Insufficient = int(counts.insufficient.Load())
	summary.NotFound = int(counts.notFound.Load())
	summary.Violations = int(counts.violations.Load())
	summary.AggregatorFailures = int(counts.aggregatorFailures.Load())
	summary.FulfilledAmount = counts.fulfilledAmount.Load()
	summary.Final = r.engine.Stock(plan.Product)
	summary.LiveRequesters = r.engine.Requesters()
	summary.Consistent = summary.Final == summary.Initial-summary.FulfilledAmount

	log.Info().
		Int64("final", summary.Final).
		Int("fulfilled", summary.Fulfilled).
		Int("insufficient", summary.Insufficient).
		Bool("consistent", summary.Consistent).
		Msg("simulation finished")

	return summary, err
}

// serve is one requester's unit of work. The requester is released when it
// ends so a later task on the same worker starts clean.
func (r *Runner) serve(t *tomb.Tomb, plan Plan, scope RequesterID, counts *tally) {
	defer r.engine.Release(scope)

	for i := 0; i < plan.OrdersPerRequester; i++ {
		select {
		case <-t.Dying():
			return
		default:
		}

		receipt, err := r.engine.Order(scope, plan.Product, plan.Amount)
		if receipt.Outcome.Fulfilled() {
			counts.fulfilled.Add(1)
			counts.fulfilledAmount.Add(receipt.Amount)
		}
		switch {
		case err == nil:
		case errors.Is(err, ErrAggregatorUpdate):
			counts.aggregatorFailures.Add(1)
		case errors.Is(err, ErrInsufficientStock):
			counts.insufficient.Add(1)
		case errors.Is(err, ErrNotFound):
			counts.notFound.Add(1)
		case errors.Is(err, ErrContractViolation):
			counts.violations.Add(1)
		}
	}
}
