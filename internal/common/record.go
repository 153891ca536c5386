package common

import (
	"fmt"
	"math"
	"time"
)

// RequesterID identifies the logical actor placing orders. Records are
// partitioned by it; the caller decides what it maps to (session, worker
// unit of work, user).
type RequesterID string

// OrderRecord is the running total of what one requester has successfully
// ordered of one product. Values are never modified once built; Accumulate
// returns a replacement.
type OrderRecord struct {
	Product   string    // Product identifier
	Amount    int64     // Accumulated ordered quantity
	Orders    int       // Number of fulfilled orders folded into Amount
	UpdatedAt time.Time // Time of the last accumulation
}

func NewOrderRecord(product string, amount int64, at time.Time) OrderRecord {
	return OrderRecord{
		Product:   product,
		Amount:    amount,
		Orders:    1,
		UpdatedAt: at,
	}
}

// Accumulate returns a new record with amount added and the timestamp
// refreshed. The receiver is left untouched.
func (r OrderRecord) Accumulate(amount int64, at time.Time) (OrderRecord, error) {
	if amount > math.MaxInt64-r.Amount {
		return r, fmt.Errorf("%s: %d + %d: %w", r.Product, r.Amount, amount, ErrAmountOverflow)
	}
	return OrderRecord{
		Product:   r.Product,
		Amount:    r.Amount + amount,
		Orders:    r.Orders + 1,
		UpdatedAt: at,
	}, nil
}

func (r OrderRecord) String() string {
	return fmt.Sprintf(
		`Product:   %s
Amount:    %d (Orders: %d)
UpdatedAt: %v`,
		r.Product,
		r.Amount,
		r.Orders,
		r.UpdatedAt.Format(time.RFC3339Nano),
	)
}
