package engine

import (
	"fmt"

	"github.com/google/uuid"

	. "stockroom/internal/common"
)

// Reporter is told about every order the engine handles. err is the same
// error Order returned.
type Reporter interface {
	ReportOrder(receipt Receipt, err error)
}

// Engine is the order service: it decrements the ledger and, when that
// succeeds, folds the order into the requester's aggregate.
type Engine struct {
	ledger     *Ledger
	aggregator *Aggregator
	reporter   Reporter
}

func New(ledger *Ledger, aggregator *Aggregator) *Engine {
	return &Engine{
		ledger:     ledger,
		aggregator: aggregator,
	}
}

// SetReporter must be called before order traffic starts.
func (engine *Engine) SetReporter(reporter Reporter) {
	engine.reporter = reporter
}

func (engine *Engine) Initialize(catalog map[string]int64) error {
	return engine.ledger.Initialize(catalog)
}

// Order places an order of amount units of product on behalf of scope.
//
// A rejected order returns the receipt with its outcome and a matching error
// (ErrNotFound, ErrInsufficientStock, ErrContractViolation). When the ledger
// commits but the aggregate cannot be updated, the outcome stays Fulfilled and
// the error wraps ErrAggregatorUpdate; the decrement is not undone.
func (engine *Engine) Order(scope RequesterID, product string, amount int64) (receipt Receipt, err error) {
	receipt = Receipt{
		ID:        uuid.New().String(),
		Requester: scope,
		Product:   product,
		Amount:    amount,
	}
	if engine.reporter != nil {
		defer func() {
			engine.reporter.ReportOrder(receipt, err)
		}()
	}

	// Reject before the ledger is touched.
	if scope == "" {
		receipt.Outcome = Outcome{Status: ContractViolation, Product: product, Requested: amount}
		return receipt, fmt.Errorf("empty requester scope: %w", ErrContractViolation)
	}

	receipt.Outcome = engine.ledger.TryDecrement(product, amount)
	if !receipt.Outcome.Fulfilled() {
		return receipt, receipt.Outcome.Err()
	}

	record, err := engine.aggregator.RecordSuccess(scope, product, amount)
	if err != nil {
		return receipt, fmt.Errorf("%s ordered %d %s: %w: %w", scope, amount, product, ErrAggregatorUpdate, err)
	}
	receipt.Record = &record
	return receipt, nil
}

// Stock returns the current quantity of product, 0 if unknown.
func (engine *Engine) Stock(product string) int64 {
	return engine.ledger.Stock(product)
}

func (engine *Engine) LatestOrder(scope RequesterID, product string) (OrderRecord, bool) {
	return engine.aggregator.Latest(scope, product)
}

func (engine *Engine) Orders(scope RequesterID) []OrderRecord {
	return engine.aggregator.Records(scope)
}

// Release forgets everything recorded for scope. Callers must release a
// requester when its unit of work ends.
func (engine *Engine) Release(scope RequesterID) {
	engine.aggregator.Release(scope)
}

func (engine *Engine) Snapshot() []StockLevel {
	return engine.ledger.Snapshot()
}

// Requesters returns how many requesters currently hold recorded orders.
func (engine *Engine) Requesters() int {
	return engine.aggregator.Requesters()
}
