package common

import "fmt"

type Status int

const (
	Fulfilled Status = iota
	RejectedNotFound
	RejectedInsufficientStock
	ContractViolation
)

var statusName = map[Status]string{
	Fulfilled:                 "fulfilled",
	RejectedNotFound:          "rejected_not_found",
	RejectedInsufficientStock: "rejected_insufficient_stock",
	ContractViolation:         "contract_violation",
}

func (s Status) String() string {
	if name, ok := statusName[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is the result of a single decrement attempt against the ledger.
//
// Quantity is the new quantity for Fulfilled and the observed quantity for
// RejectedInsufficientStock; it is zero otherwise. Version is the per-product
// commit sequence number produced by a Fulfilled decrement.
type Outcome struct {
	Status    Status
	Product   string
	Requested int64
	Quantity  int64
	Version   uint64
}

func (o Outcome) Fulfilled() bool {
	return o.Status == Fulfilled
}

// Err maps a rejected outcome onto the error taxonomy. It is nil for
// Fulfilled.
func (o Outcome) Err() error {
	switch o.Status {
	case Fulfilled:
		return nil
	case RejectedNotFound:
		return fmt.Errorf("%s: %w", o.Product, ErrNotFound)
	case RejectedInsufficientStock:
		return &InsufficientStockError{
			Product:   o.Product,
			Requested: o.Requested,
			Observed:  o.Quantity,
		}
	case ContractViolation:
		return fmt.Errorf("%s: amount %d must be positive: %w", o.Product, o.Requested, ErrContractViolation)
	default:
		return fmt.Errorf("unknown outcome %v", o.Status)
	}
}
