package sim

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	. "stockroom/internal/common"
)

// LogReporter writes one log line per order outcome.
type LogReporter struct {
	logger zerolog.Logger
}

func NewLogReporter() *LogReporter {
	return &LogReporter{logger: log.Logger}
}

func NewLogReporterWith(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) ReportOrder(receipt Receipt, err error) {
	var event *zerolog.Event
	switch {
	case err == nil:
		event = r.logger.Info()
	case errors.Is(err, ErrAggregatorUpdate):
		event = r.logger.Error().Err(err)
	default:
		event = r.logger.Warn().Err(err)
	}

	event = event.
		Str("receipt", receipt.ID).
		Str("requester", string(receipt.Requester)).
		Str("product", receipt.Product).
		Int64("amount", receipt.Amount).
		Str("status", receipt.Outcome.Status.String()).
		Int64("quantity", receipt.Outcome.Quantity)
	if receipt.Record != nil {
		event = event.
			Int64("accumulated", receipt.Record.Amount).
			Uint64("version", receipt.Outcome.Version)
	}
	event.Msg("order")
}
