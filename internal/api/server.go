// Package api exposes the calculation engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/mux"
	"github.com/rpgo/wealth-optimizer/internal/cache"
	"github.com/rpgo/wealth-optimizer/internal/calculation"
	"github.com/rpgo/wealth-optimizer/internal/currency"
	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/internal/store"
	"github.com/sirupsen/logrus"
)

// CurrencyHeader selects the currency of request amounts and response values.
const CurrencyHeader = "X-Currency"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// resultSweepInterval is how often expired cached responses are dropped.
const resultSweepInterval = 5 * time.Minute

// Options configures a Server. Zero values select in-memory collaborators,
// no currency conversion and no rate limiting.
type Options struct {
	Store        store.Store
	Converter    *currency.Converter
	Results      cache.Cache
	ResultTTL    time.Duration
	BaseCurrency string
	RateLimiter  *RateLimiter
	Parallel     bool
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	engine    *calculation.CalculationEngine
	store     store.Store
	converter *currency.Converter
	results   cache.Cache
	resultTTL time.Duration
	base      string
	limiter   *RateLimiter
	log       *logrus.Logger
}

// NewServer creates a server.
func NewServer(opts Options, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	engine := calculation.NewCalculationEngine()
	engine.Parallel = opts.Parallel
	engine.SetLogger(log)

	s := &Server{
		engine:    engine,
		store:     opts.Store,
		converter: opts.Converter,
		results:   opts.Results,
		resultTTL: opts.ResultTTL,
		base:      strings.ToUpper(opts.BaseCurrency),
		limiter:   opts.RateLimiter,
		log:       log,
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.results == nil {
		s.results = cache.NewMemoryCache()
	}
	if s.resultTTL <= 0 {
		s.resultTTL = 10 * time.Minute
	}
	if s.converter != nil {
		s.base = s.converter.Base()
	}
	if s.base == "" {
		s.base = "USD"
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(s.log))

	r.HandleFunc("/healthz", s.Health).Methods("GET")

	calc := r.PathPrefix("/").Subrouter()
	if s.limiter != nil {
		calc.Use(s.limiter.Middleware)
	}
	calc.HandleFunc("/amortization", s.Amortization).Methods("POST")
	calc.HandleFunc("/loans", s.ListLoans).Methods("GET")
	calc.HandleFunc("/loans/{id:[0-9]+}/amortization", s.LoanAmortization).Methods("POST")
	calc.HandleFunc("/strategies/compare", s.CompareStrategies).Methods("POST")
	calc.HandleFunc("/investments/projection", s.Projection).Methods("POST")
	calc.HandleFunc("/networth", s.NetWorth).Methods("POST")
	calc.HandleFunc("/plans", s.RunPlan).Methods("POST")
	calc.HandleFunc("/recommendations", s.Recommendations).Methods("POST")
	calc.HandleFunc("/portfolios/{id:[0-9]+}/summary", s.PortfolioSummary).Methods("GET")
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if mc, ok := s.results.(*cache.MemoryCache); ok {
		go mc.RunSweeper(ctx, resultSweepInterval)
	}

	serverErr := make(chan error, 1)
	go func() {
		s.log.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	return nil
}

// readBody reads the request body. An empty body is allowed.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.InvalidParameter("body", "failed to read request: %v", err)
	}
	return data, nil
}

func decode(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return domain.InvalidParameter("body", "invalid JSON: %v", err)
	}
	return nil
}

// requestCurrency picks the body field, then the header, then the base currency.
func (s *Server) requestCurrency(r *http.Request, field string) string {
	if field != "" {
		return strings.ToUpper(field)
	}
	if h := r.Header.Get(CurrencyHeader); h != "" {
		return strings.ToUpper(h)
	}
	return s.base
}

// scalers returns the conversions into and out of the base currency.
func (s *Server) scalers(ctx context.Context, code string) (in, out currency.Scaler, err error) {
	if code == s.base {
		identity := currency.Scale(currencyOne)
		return identity, identity, nil
	}
	if s.converter == nil {
		return nil, nil, domain.InvalidParameter("currency", "conversion to %s is not configured", code)
	}
	toBase, err := s.converter.ToBase(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	fromBase, err := s.converter.FromBase(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	return currency.Scale(toBase), currency.Scale(fromBase), nil
}

// resultKey identifies a cacheable response by route, currency, the
// exchange rate in effect and the request body. A refreshed rate misses.
func (s *Server) resultKey(r *http.Request, body []byte, code string) (string, error) {
	rate := currencyOne
	if code != s.base {
		if s.converter == nil {
			return "", domain.InvalidParameter("currency", "conversion to %s is not configured", code)
		}
		var err error
		if rate, err = s.converter.FromBase(r.Context(), code); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("resp:%s:%s:%s:%016x", r.URL.Path, code, rate.String(), xxhash.Sum64(body)), nil
}

// cachedJSON serves a previously computed response stored under key. An
// empty key computes the response without caching it.
func (s *Server) cachedJSON(w http.ResponseWriter, r *http.Request, key string, compute func() (any, error)) {
	if key == "" {
		v, err := compute()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("X-Cache", "BYPASS")
		writeJSON(w, http.StatusOK, v)
		return
	}
	if raw, ok := s.results.Get(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, raw+"\n")
		return
	}

	v, err := compute()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to encode response: %w", err))
		return
	}
	if err := s.results.Set(r.Context(), key, string(raw), s.resultTTL); err != nil {
		s.log.Warnf("Failed to cache response: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
	_, _ = io.WriteString(w, "\n")
}
