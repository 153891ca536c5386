package common

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRecord_Accumulate(t *testing.T) {
	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Second)

	record := NewOrderRecord("apple", 3, first)
	next, err := record.Accumulate(5, second)
	require.NoError(t, err)

	assert.Equal(t, OrderRecord{Product: "apple", Amount: 8, Orders: 2, UpdatedAt: second}, next)
	// The original value is untouched.
	assert.Equal(t, OrderRecord{Product: "apple", Amount: 3, Orders: 1, UpdatedAt: first}, record)
}

func TestOrderRecord_AccumulateOverflow(t *testing.T) {
	record := NewOrderRecord("apple", math.MaxInt64-1, time.Now())

	_, err := record.Accumulate(2, time.Now())
	assert.ErrorIs(t, err, ErrAmountOverflow)

	next, err := record.Accumulate(1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), next.Amount)
}

func TestOutcome_Err(t *testing.T) {
	assert.NoError(t, Outcome{Status: Fulfilled}.Err())
	assert.ErrorIs(t, Outcome{Status: RejectedNotFound, Product: "kiwi"}.Err(), ErrNotFound)
	assert.ErrorIs(t, Outcome{Status: ContractViolation, Requested: -3}.Err(), ErrContractViolation)

	err := Outcome{Status: RejectedInsufficientStock, Product: "apple", Requested: 8, Quantity: 4}.Err()
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(4), insufficient.Observed)
	assert.Equal(t, int64(8), insufficient.Requested)
	assert.Equal(t, "apple: requested 8, available 4: insufficient stock", err.Error())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "fulfilled", Fulfilled.String())
	assert.Equal(t, "rejected_insufficient_stock", RejectedInsufficientStock.String())
	assert.Equal(t, "status(42)", Status(42).String())
}
