package common

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrContractViolation = errors.New("contract violation")
	ErrAggregatorUpdate  = errors.New("aggregator update failed")
	ErrTooManyRequesters = errors.New("too many requesters")
	ErrAmountOverflow    = errors.New("accumulated amount overflow")
)

// InsufficientStockError carries the quantity observed at the commit point so
// the caller can retry with a smaller amount or give up.
type InsufficientStockError struct {
	Product   string
	Requested int64
	Observed  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: requested %d, available %d: %s",
		e.Product, e.Requested, e.Observed, ErrInsufficientStock)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
