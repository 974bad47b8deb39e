package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rpgo/wealth-optimizer/internal/cache"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long a fetched rate table is reused.
const DefaultTTL = 24 * time.Hour

// Converter converts amounts using rates from a provider, cached per base currency.
type Converter struct {
	base     string
	provider RateProvider
	fallback RateProvider
	cache    cache.Cache
	ttl      time.Duration
	log      *logrus.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithCache replaces the default in-memory cache.
func WithCache(c cache.Cache) Option { return func(cv *Converter) { cv.cache = c } }

// WithTTL sets the rate table lifetime.
func WithTTL(ttl time.Duration) Option { return func(cv *Converter) { cv.ttl = ttl } }

// WithFallback sets the provider used when the primary one fails.
func WithFallback(p RateProvider) Option { return func(cv *Converter) { cv.fallback = p } }

// NewConverter creates a converter whose base currency is the engine's unit of account.
func NewConverter(base string, provider RateProvider, log *logrus.Logger, opts ...Option) *Converter {
	c := &Converter{
		base:     strings.ToUpper(base),
		provider: provider,
		cache:    cache.NewMemoryCache(),
		ttl:      DefaultTTL,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the base currency.
func (c *Converter) Base() string { return c.base }

func cacheKey(base string) string { return "rates:" + base }

// Table returns the cached rate table, fetching it when absent or expired.
func (c *Converter) Table(ctx context.Context) (*RateTable, error) {
	if raw, ok := c.cache.Get(ctx, cacheKey(c.base)); ok {
		var t RateTable
		if err := json.Unmarshal([]byte(raw), &t); err == nil {
			return &t, nil
		}
		c.log.Warnf("Discarding unreadable cached rate table for %s", c.base)
	}
	return c.Refresh(ctx)
}

// Refresh fetches a new table and stores it in the cache.
func (c *Converter) Refresh(ctx context.Context) (*RateTable, error) {
	t, err := c.provider.Rates(ctx, c.base)
	if err != nil {
		if c.fallback == nil {
			return nil, fmt.Errorf("failed to fetch exchange rates: %w", err)
		}
		c.log.Errorf("Error fetching exchange rates, using fallback: %v", err)
		if t, err = c.fallback.Rates(ctx, c.base); err != nil {
			return nil, fmt.Errorf("failed to fetch fallback exchange rates: %w", err)
		}
	}

	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rate table: %w", err)
	}
	if err := c.cache.Set(ctx, cacheKey(c.base), string(raw), c.ttl); err != nil {
		c.log.Warnf("Failed to cache exchange rates: %v", err)
	}
	return t, nil
}

// Rate returns the multiplier converting from one currency into another.
func (c *Converter) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	t, err := c.Table(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	fromRate, err := t.Rate(from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := t.Rate(to)
	if err != nil {
		return decimal.Zero, err
	}
	return toRate.DivRound(fromRate, 10), nil
}

// Convert converts amount and rounds it to cents.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if amount.IsZero() {
		return amount, nil
	}
	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return Scale(rate)(amount), nil
}

// ToBase returns the multiplier from currency into the base currency.
func (c *Converter) ToBase(ctx context.Context, currency string) (decimal.Decimal, error) {
	return c.Rate(ctx, currency, c.base)
}

// FromBase returns the multiplier from the base currency into currency.
func (c *Converter) FromBase(ctx context.Context, currency string) (decimal.Decimal, error) {
	return c.Rate(ctx, c.base, currency)
}
