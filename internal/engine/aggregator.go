package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/btree"

	. "stockroom/internal/common"
)

// requesterBook holds one requester's records, ordered by product.
type requesterBook struct {
	mu       sync.Mutex
	records  *btree.Map[string, OrderRecord]
	released bool // set by Release; writers must fetch a fresh book
}

type AggregatorOption func(*Aggregator)

// WithMaxRequesters caps how many requester books may be live at once.
// Zero means no cap.
func WithMaxRequesters(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.maxRequesters = n
	}
}

func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		a.now = now
	}
}

// Aggregator tracks, per requester, the accumulated amount ordered of each
// product. Requesters never see each other's books.
type Aggregator struct {
	mu            sync.RWMutex
	books         map[RequesterID]*requesterBook
	maxRequesters int
	now           func() time.Time
}

func NewAggregator(opts ...AggregatorOption) *Aggregator {
	aggregator := &Aggregator{
		books: make(map[RequesterID]*requesterBook),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(aggregator)
	}
	return aggregator
}

// RecordSuccess folds a fulfilled order into the requester's record for
// product and returns the record now current.
func (a *Aggregator) RecordSuccess(scope RequesterID, product string, amount int64) (OrderRecord, error) {
	if scope == "" {
		return OrderRecord{}, fmt.Errorf("empty requester scope: %w", ErrContractViolation)
	}
	if amount <= 0 {
		return OrderRecord{}, fmt.Errorf("%s: amount %d must be positive: %w", product, amount, ErrContractViolation)
	}

	for {
		book, err := a.acquire(scope)
		if err != nil {
			return OrderRecord{}, err
		}

		book.mu.Lock()
		if book.released {
			// Lost a race with Release, the book is gone.
			book.mu.Unlock()
			continue
		}

		at := a.now()
		record, ok := book.records.Get(product)
		if !ok {
			record = NewOrderRecord(product, amount, at)
		} else {
			record, err = record.Accumulate(amount, at)
			if err != nil {
				book.mu.Unlock()
				return OrderRecord{}, err
			}
		}
		book.records.Set(product, record)
		book.mu.Unlock()
		return record, nil
	}
}

// acquire returns the requester's book, creating it on first use.
func (a *Aggregator) acquire(scope RequesterID) (*requesterBook, error) {
	a.mu.RLock()
	book, ok := a.books[scope]
	a.mu.RUnlock()
	if ok {
		return book, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if book, ok = a.books[scope]; ok {
		return book, nil
	}
	if a.maxRequesters > 0 && len(a.books) >= a.maxRequesters {
		return nil, fmt.Errorf("%s: limit %d: %w", scope, a.maxRequesters, ErrTooManyRequesters)
	}
	book = &requesterBook{records: btree.NewMap[string, OrderRecord](0)}
	a.books[scope] = book
	return book, nil
}

func (a *Aggregator) lookup(scope RequesterID) (*requesterBook, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	book, ok := a.books[scope]
	return book, ok
}

// Latest returns the requester's current record for product.
func (a *Aggregator) Latest(scope RequesterID, product string) (OrderRecord, bool) {
	book, ok := a.lookup(scope)
	if !ok {
		return OrderRecord{}, false
	}

	book.mu.Lock()
	defer book.mu.Unlock()
	if book.released {
		return OrderRecord{}, false
	}
	return book.records.Get(product)
}

// Records returns all of the requester's records sorted by product.
func (a *Aggregator) Records(scope RequesterID) []OrderRecord {
	book, ok := a.lookup(scope)
	if !ok {
		return nil
	}

	book.mu.Lock()
	defer book.mu.Unlock()
	if book.released {
		return nil
	}
	records := make([]OrderRecord, 0, book.records.Len())
	book.records.Scan(func(_ string, record OrderRecord) bool {
		records = append(records, record)
		return true
	})
	return records
}

// Release discards the requester's book. Safe to call for unknown requesters.
func (a *Aggregator) Release(scope RequesterID) {
	a.mu.Lock()
	book, ok := a.books[scope]
	delete(a.books, scope)
	a.mu.Unlock()
	if !ok {
		return
	}

	book.mu.Lock()
	book.released = true
	book.mu.Unlock()
}

// Requesters returns the number of live requester books.
func (a *Aggregator) Requesters() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.books)
}
