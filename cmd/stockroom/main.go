package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stockroom/internal/config"
	"stockroom/internal/engine"
	"stockroom/internal/sim"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// 1. CLI Parameter Parsing, defaults come from the environment.
	catalogStr := flag.String("catalog", config.DefaultCatalog, "Catalog seed as product=quantity pairs (e.g. apple=100,banana=50)")
	product := flag.String("product", cfg.Product, "Product every simulated requester orders")
	amount := flag.Int64("amount", cfg.Amount, "Quantity per order")
	requesters := flag.Int("requesters", cfg.Requesters, "Number of simulated requesters")
	workers := flag.Int("workers", cfg.Workers, "Number of concurrent workers")
	orders := flag.Int("orders", cfg.OrdersPerRequester, "Orders placed by each requester")
	delay := flag.Duration("delay", cfg.CheckDelay, "Pause between the stock check and the stock write")
	maxRequesters := flag.Int("max-requesters", cfg.MaxRequesters, "Cap on live requesters in the aggregator (0 = none)")
	flag.Parse()

	setupLogging(cfg.LogLevel, cfg.LogFormat)

	catalog := cfg.Catalog
	if isFlagSet("catalog") {
		catalog, err = config.ParseCatalog(*catalogStr)
		if err != nil {
			log.Fatal().Err(err).Msg("unable to parse catalog")
		}
	}

	// 2. Seed the ledger and wire the order service.
	ledger := engine.NewLedger(engine.WithCheckDelay(*delay))
	aggregator := engine.NewAggregator(engine.WithMaxRequesters(*maxRequesters))
	eng := engine.New(ledger, aggregator)
	eng.SetReporter(sim.NewLogReporter())
	if err := eng.Initialize(catalog); err != nil {
		log.Fatal().Err(err).Msg("unable to seed catalog")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// 3. Run the simulated traffic.
	runner := sim.NewRunner(eng)
	summary, err := runner.Run(ctx, sim.Plan{
		Product:            *product,
		Amount:             *amount,
		Requesters:         *requesters,
		Workers:            *workers,
		OrdersPerRequester: *orders,
	})
	if err != nil {
		log.Error().Err(err).Msg("simulation interrupted")
	}

	for _, level := range eng.Snapshot() {
		log.Info().
			Str("product", level.Product).
			Int64("quantity", level.Quantity).
			Uint64("version", level.Version).
			Msg("stock")
	}

	fmt.Println("==============================================")
	fmt.Println("Initial Stock :", summary.Initial)
	fmt.Println("Fulfilled     :", summary.Fulfilled, "orders,", summary.FulfilledAmount, "units")
	fmt.Println("Rejected      :", summary.Insufficient+summary.NotFound+summary.Violations)
	fmt.Println("Final Stock   :", summary.Final)
	fmt.Println("Consistent    :", summary.Consistent)
	fmt.Println("==============================================")

	if !summary.Consistent || err != nil {
		stop()
		os.Exit(1)
	}
}

func setupLogging(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if strings.EqualFold(format, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
