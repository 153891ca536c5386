package engine

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	. "stockroom/internal/common"
)

// stockEntry holds the quantity of one product. The mutex scopes the
// check-then-write of a decrement to this product only; quantity is atomic so
// reads never wait on it.
type stockEntry struct {
	mu       sync.Mutex
	quantity atomic.Int64
	version  atomic.Uint64
}

// stockTable is immutable once published. Only the entries it points to change.
type stockTable struct {
	entries  map[string]*stockEntry
	products []string // sorted
}

// StockLevel is a point-in-time view of one ledger entry.
type StockLevel struct {
	Product  string
	Quantity int64
	Version  uint64
}

type LedgerOption func(*Ledger)

// WithCheckHook installs a function called between reading the current
// quantity and writing the new one, while the product's lock is held.
func WithCheckHook(hook func(product string)) LedgerOption {
	return func(l *Ledger) {
		l.checkHook = hook
	}
}

// WithCheckDelay sleeps for d between the stock check and the stock write.
func WithCheckDelay(d time.Duration) LedgerOption {
	return func(l *Ledger) {
		if d <= 0 {
			l.checkHook = nil
			return
		}
		l.checkHook = func(string) {
			time.Sleep(d)
		}
	}
}

// Ledger maps products to their remaining quantity.
type Ledger struct {
	table     atomic.Pointer[stockTable]
	checkHook func(product string)
}

func NewLedger(opts ...LedgerOption) *Ledger {
	ledger := &Ledger{}
	ledger.table.Store(&stockTable{entries: map[string]*stockEntry{}})
	for _, opt := range opts {
		opt(ledger)
	}
	return ledger
}

// Initialize replaces the catalog. It must not race with order traffic: an
// in-flight decrement may land on the table being replaced.
func (l *Ledger) Initialize(catalog map[string]int64) error {
	table := &stockTable{
		entries:  make(map[string]*stockEntry, len(catalog)),
		products: make([]string, 0, len(catalog)),
	}
	for product, quantity := range catalog {
		if product == "" {
			return fmt.Errorf("empty product id: %w", ErrContractViolation)
		}
		if quantity < 0 {
			return fmt.Errorf("%s: negative quantity %d: %w", product, quantity, ErrContractViolation)
		}
		entry := &stockEntry{}
		entry.quantity.Store(quantity)
		table.entries[product] = entry
		table.products = append(table.products, product)
	}
	slices.Sort(table.products)

	l.table.Store(table)
	return nil
}

// Stock returns the current quantity of product, or 0 when it is unknown.
func (l *Ledger) Stock(product string) int64 {
	entry, ok := l.table.Load().entries[product]
	if !ok {
		return 0
	}
	return entry.quantity.Load()
}

// TryDecrement removes amount from product if enough stock is left.
//
// The read of the current quantity and the write of the new one happen under
// the product's own lock, so decrements of one product are totally ordered
// while decrements of different products never wait on each other.
func (l *Ledger) TryDecrement(product string, amount int64) Outcome {
	outcome := Outcome{Product: product, Requested: amount}
	if amount <= 0 {
		outcome.Status = ContractViolation
		return outcome
	}

	entry, ok := l.table.Load().entries[product]
	if !ok {
		outcome.Status = RejectedNotFound
		return outcome
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	current := entry.quantity.Load()
	if l.checkHook != nil {
		l.checkHook(product)
	}

	if current < amount {
		outcome.Status = RejectedInsufficientStock
		outcome.Quantity = current
		return outcome
	}

	entry.quantity.Store(current - amount)
	outcome.Status = Fulfilled
	outcome.Quantity = current - amount
	outcome.Version = entry.version.Add(1)
	return outcome
}

// Products returns the seeded product ids in ascending order.
func (l *Ledger) Products() []string {
	return slices.Clone(l.table.Load().products)
}

// Snapshot reads every entry in product order. Entries are read one by one,
// so the result is not a consistent cut across products.
func (l *Ledger) Snapshot() []StockLevel {
	table := l.table.Load()
	levels := make([]StockLevel, 0, len(table.products))
	for _, product := range table.products {
		entry := table.entries[product]
		entry.mu.Lock()
		levels = append(levels, StockLevel{
			Product:  product,
			Quantity: entry.quantity.Load(),
			Version:  entry.version.Load(),
		})
		entry.mu.Unlock()
	}
	return levels
}
