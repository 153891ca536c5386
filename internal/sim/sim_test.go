package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	. "stockroom/internal/common"
	"stockroom/internal/engine"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func createTestEngine(t *testing.T, catalog map[string]int64, aggOpts ...engine.AggregatorOption) *engine.Engine {
	t.Helper()
	eng := engine.New(engine.NewLedger(engine.WithCheckDelay(100*time.Microsecond)), engine.NewAggregator(aggOpts...))
	require.NoError(t, eng.Initialize(catalog))
	return eng
}

func TestRunner_Run(t *testing.T) {
	eng := createTestEngine(t, map[string]int64{"apple": 100, "banana": 50})

	summary, err := NewRunner(eng).Run(context.Background(), Plan{
		Product:            "apple",
		Amount:             8,
		Requesters:         100,
		Workers:            16,
		OrdersPerRequester: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Product:         "apple",
		Initial:         100,
		Final:           4,
		Fulfilled:       12,
		Insufficient:    88,
		FulfilledAmount: 96,
		LiveRequesters:  0,
		Consistent:      true,
	}, summary)
	assert.Equal(t, int64(50), eng.Stock("banana"))
}

func TestRunner_Run_MultipleOrdersPerRequester(t *testing.T) {
	eng := createTestEngine(t, map[string]int64{"apple": 1000})

	summary, err := NewRunner(eng).Run(context.Background(), Plan{
		Product:            "apple",
		Amount:             3,
		Requesters:         20,
		Workers:            4,
		OrdersPerRequester: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, summary.Fulfilled)
	assert.Equal(t, int64(700), summary.Final)
	assert.True(t, summary.Consistent)
	// Every requester released its records when its work ended.
	assert.Equal(t, 0, summary.LiveRequesters)
}

func TestRunner_Run_UnknownProduct(t *testing.T) {
	eng := createTestEngine(t, map[string]int64{"apple": 10})

	summary, err := NewRunner(eng).Run(context.Background(), Plan{
		Product: "kiwi", Amount: 1, Requesters: 5, Workers: 2, OrdersPerRequester: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.NotFound)
	assert.True(t, summary.Consistent)
}

func TestRunner_Run_AggregatorFailures(t *testing.T) {
	// A cap of one live requester with four workers makes some bookkeeping
	// fail while the ledger still commits.
	eng := createTestEngine(t, map[string]int64{"apple": 1000}, engine.WithMaxRequesters(1))

	summary, err := NewRunner(eng).Run(context.Background(), Plan{
		Product: "apple", Amount: 1, Requesters: 40, Workers: 4, OrdersPerRequester: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, summary.Fulfilled)
	assert.Equal(t, int64(880), summary.Final)
	assert.True(t, summary.Consistent)
}

func TestRunner_Run_InvalidPlan(t *testing.T) {
	eng := createTestEngine(t, map[string]int64{"apple": 10})

	_, err := NewRunner(eng).Run(context.Background(), Plan{Product: "apple", Amount: 1})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestRunner_Run_Cancelled(t *testing.T) {
	eng := createTestEngine(t, map[string]int64{"apple": 100000})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewRunner(eng).Run(ctx, Plan{
		Product: "apple", Amount: 1, Requesters: 1000, Workers: 2, OrdersPerRequester: 10,
	})
	assert.ErrorIs(t, err, context.Canceled)
	// Whatever ran before the cancel was still conserved.
	assert.True(t, summary.Consistent)
	assert.Equal(t, 0, summary.LiveRequesters)
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewLogReporterWith(zerolog.New(&buf))

	eng := createTestEngine(t, map[string]int64{"apple": 10})
	eng.SetReporter(reporter)

	_, _ = eng.Order("alice", "apple", 4)
	_, _ = eng.Order("alice", "apple", 40)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var fulfilled, rejected map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &fulfilled))
	require.NoError(t, json.Unmarshal(lines[1], &rejected))

	assert.Equal(t, "info", fulfilled["level"])
	assert.Equal(t, Fulfilled.String(), fulfilled["status"])
	assert.Equal(t, float64(4), fulfilled["accumulated"])
	assert.Equal(t, "warn", rejected["level"])
	assert.Equal(t, RejectedInsufficientStock.String(), rejected["status"])
	assert.Equal(t, float64(6), rejected["quantity"])
}
