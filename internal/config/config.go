// Package config provides runtime configuration values for the simulator.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidCatalog = errors.New("invalid catalog")
)

const DefaultCatalog = "apple=100,banana=50,orange=75"

// Config holds the catalog seed and the knobs of a simulated order run.
type Config struct {
	Catalog            map[string]int64
	Product            string
	Amount             int64
	Requesters         int
	Workers            int
	OrdersPerRequester int
	CheckDelay         time.Duration
	MaxRequesters      int
	LogLevel           string
	LogFormat          string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

// ParseCatalog parses "product=quantity" pairs separated by commas.
func ParseCatalog(raw string) (map[string]int64, error) {
	catalog := make(map[string]int64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		product, quantity, ok := strings.Cut(pair, "=")
		product = strings.TrimSpace(product)
		if !ok || product == "" {
			return nil, fmt.Errorf("%q: %w", pair, ErrInvalidCatalog)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(quantity), 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%q: bad quantity: %w", pair, ErrInvalidCatalog)
		}
		if _, dup := catalog[product]; dup {
			return nil, fmt.Errorf("%q: duplicate product: %w", product, ErrInvalidCatalog)
		}
		catalog[product] = n
	}
	return catalog, nil
}

// Load collects configuration from environment with defaults.
func Load() (Config, error) {
	catalog, err := ParseCatalog(getenv("CATALOG", DefaultCatalog))
	if err != nil {
		return Config{}, err
	}
	return Config{
		Catalog:            catalog,
		Product:            getenv("ORDER_PRODUCT", "apple"),
		Amount:             int64(atoienv("ORDER_AMOUNT", 8)),
		Requesters:         atoienv("REQUESTERS", 100),
		Workers:            atoienv("WORKERS", 16),
		OrdersPerRequester: atoienv("ORDERS_PER_REQUESTER", 1),
		CheckDelay:         durenvms("CHECK_DELAY_MS", 1),
		MaxRequesters:      atoienv("MAX_REQUESTERS", 0),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFormat:          getenv("LOG_FORMAT", "json"),
	}, nil
}
