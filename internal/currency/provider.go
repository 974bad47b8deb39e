// Package currency converts monetary values between currencies. The
// calculation engine works in a single base currency; this package converts
// inputs into it and results back out of it.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrUnknownCurrency is returned when a rate table has no entry for a currency.
var ErrUnknownCurrency = errors.New("unknown currency")

// RateTable holds the units of each currency per one unit of Base.
type RateTable struct {
	Base    string                     `json:"base"`
	Date    string                     `json:"date,omitempty"`
	Rates   map[string]decimal.Decimal `json:"rates"`
	Fetched time.Time                  `json:"fetched"`
}

// Rate returns the units of code per one unit of Base.
func (t *RateTable) Rate(code string) (decimal.Decimal, error) {
	code = strings.ToUpper(code)
	if code == t.Base {
		return decimal.NewFromInt(1), nil
	}
	r, ok := t.Rates[code]
	if !ok || !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return r, nil
}

// Rebase expresses the table relative to another currency in it.
func (t *RateTable) Rebase(base string) (*RateTable, error) {
	base = strings.ToUpper(base)
	if base == t.Base {
		return t, nil
	}
	pivot, err := t.Rate(base)
	if err != nil {
		return nil, err
	}
	rates := make(map[string]decimal.Decimal, len(t.Rates)+1)
	rates[t.Base] = decimal.NewFromInt(1).DivRound(pivot, 10)
	for code, r := range t.Rates {
		if code == base {
			continue
		}
		rates[code] = r.DivRound(pivot, 10)
	}
	return &RateTable{Base: base, Date: t.Date, Rates: rates, Fetched: t.Fetched}, nil
}

// RateProvider fetches a rate table for a base currency.
type RateProvider interface {
	Rates(ctx context.Context, base string) (*RateTable, error)
}

// StaticProvider serves a fixed table.
type StaticProvider struct {
	Table RateTable
}

// DefaultRates is the table used when no rate source is configured.
func DefaultRates() *StaticProvider {
	return &StaticProvider{Table: RateTable{
		Base: "USD",
		Rates: map[string]decimal.Decimal{
			"DKK": decimal.RequireFromString("6.8991310126"),
			"EUR": decimal.RequireFromString("0.9245"),
			"GBP": decimal.RequireFromString("0.7862"),
		},
	}}
}

func (s *StaticProvider) Rates(_ context.Context, base string) (*RateTable, error) {
	return s.Table.Rebase(base)
}

// HTTPProvider fetches JSON tables shaped like {"base": "USD", "rates": {...}}.
// A "{base}" placeholder in URL is replaced by the requested base currency.
type HTTPProvider struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewHTTPProvider creates a JSON rate provider.
func NewHTTPProvider(url string, log *logrus.Logger) *HTTPProvider {
	return &HTTPProvider{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type jsonRates struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (p *HTTPProvider) Rates(ctx context.Context, base string) (*RateTable, error) {
	base = strings.ToUpper(base)
	url := strings.ReplaceAll(p.url, "{base}", base)
	body, err := fetch(ctx, p.client, url)
	if err != nil {
		return nil, err
	}

	var payload jsonRates
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse rates: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("no rates found in response")
	}
	if payload.Base == "" {
		payload.Base = base
	}

	table := &RateTable{
		Base:    strings.ToUpper(payload.Base),
		Date:    payload.Date,
		Rates:   normalize(payload.Rates),
		Fetched: time.Now().UTC(),
	}
	p.log.Infof("Fetched %d exchange rates with base currency %s", len(table.Rates), table.Base)
	return table.Rebase(base)
}

// ECBProvider reads the European Central Bank daily reference rate feed,
// whose rates are quoted per one euro.
type ECBProvider struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// ECBDailyURL is the public location of the ECB reference rate feed.
const ECBDailyURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"

// NewECBProvider creates an ECB feed provider.
func NewECBProvider(url string, log *logrus.Logger) *ECBProvider {
	if url == "" {
		url = ECBDailyURL
	}
	return &ECBProvider{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (p *ECBProvider) Rates(ctx context.Context, base string) (*RateTable, error) {
	body, err := fetch(ctx, p.client, p.url)
	if err != nil {
		return nil, err
	}
	p.log.Debugf("ECB XML response: %d bytes", len(body))

	table, err := parseECB(body)
	if err != nil {
		return nil, err
	}
	table.Fetched = time.Now().UTC()
	return table.Rebase(base)
}

// parseECB extracts the euro based table from the feed.
func parseECB(raw []byte) (*RateTable, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	cubes := doc.FindElements("//Cube[@currency]")
	if len(cubes) == 0 {
		return nil, fmt.Errorf("no rate data found in XML")
	}

	table := &RateTable{Base: "EUR", Rates: make(map[string]decimal.Decimal, len(cubes))}
	if dated := doc.FindElement("//Cube[@time]"); dated != nil {
		table.Date = dated.SelectAttrValue("time", "")
	}
	for _, c := range cubes {
		code := strings.ToUpper(c.SelectAttrValue("currency", ""))
		rate, err := decimal.NewFromString(c.SelectAttrValue("rate", ""))
		if err != nil {
			return nil, fmt.Errorf("failed to parse rate for %s: %w", code, err)
		}
		table.Rates[code] = rate
	}
	return table, nil
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func normalize(rates map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(rates))
	for code, r := range rates {
		out[strings.ToUpper(code)] = r
	}
	return out
}
