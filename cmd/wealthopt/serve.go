package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rpgo/wealth-optimizer/internal/api"
	"github.com/rpgo/wealth-optimizer/internal/cache"
	"github.com/rpgo/wealth-optimizer/internal/config"
	"github.com/rpgo/wealth-optimizer/internal/currency"
	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/rpgo/wealth-optimizer/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculators over HTTP",
		Long: `Serve the calculators over HTTP.

Settings come from the environment (PORT, LOG_LEVEL, DB_CONN, REDIS_ADDR,
CACHE_TTL, BASE_CURRENCY, RATES_URL, RATES_FORMAT, RATES_REFRESH, PLAN_FILE,
RATE_LIMIT, RATE_WINDOW); a --config YAML file overrides them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if configFile != "" {
				if err := cfg.LoadOverlay(configFile); err != nil {
					return err
				}
			}
			log := config.NewLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, cleanup, err := buildServer(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			return srv.ListenAndServe(ctx, ":"+cfg.Port)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "YAML file overriding environment settings")
	return cmd
}

// buildServer assembles the server and returns a function releasing its resources.
func buildServer(ctx context.Context, cfg *config.ServerConfig, log *logrus.Logger) (*api.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var seed *domain.Plan
	if cfg.PlanFile != "" {
		plan, err := loadPlan(cfg.PlanFile)
		if err != nil {
			return nil, nil, err
		}
		seed = plan
	}

	st, closeStore, err := openStore(ctx, cfg, seed, log)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	c := openCache(ctx, cfg, log)
	if rc, ok := c.(*cache.RedisCache); ok {
		closers = append(closers, func() { _ = rc.Close() })
	}

	provider := rateProvider(cfg.RatesURL, cfg.RatesFormat, log)
	conv := currency.NewConverter(cfg.BaseCurrency, provider, log,
		currency.WithCache(c),
		currency.WithTTL(cfg.CacheTTL),
		currency.WithFallback(currency.DefaultRates()),
	)
	if _, static := provider.(*currency.StaticProvider); !static && cfg.RatesRefresh != "" {
		refresher, err := currency.NewRefresher(conv, cfg.RatesRefresh, log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if _, err := conv.Refresh(ctx); err != nil {
			log.Warnf("Initial exchange rate fetch failed: %v", err)
		}
		refresher.Start()
		log.Infof("Exchange rates refresh next at %s", refresher.Next())
		closers = append(closers, refresher.Stop)
	}

	var limiter *api.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = api.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
		closers = append(closers, limiter.Stop)
	}

	srv := api.NewServer(api.Options{
		Store:       st,
		Converter:   conv,
		Results:     c,
		RateLimiter: limiter,
	}, log)
	return srv, cleanup, nil
}

// openStore connects to Postgres when configured, seeding an empty database
// from the plan file; otherwise the plan file backs an in-memory store.
func openStore(ctx context.Context, cfg *config.ServerConfig, seed *domain.Plan, log *logrus.Logger) (store.Store, func(), error) {
	if cfg.DBConn == "" {
		log.Info("Using in-memory store")
		return store.NewMemoryStoreFromPlan(seed), func() {}, nil
	}

	db, err := store.OpenPostgres(ctx, cfg.DBConn)
	if err != nil {
		return nil, nil, err
	}
	pg := store.NewPostgresStore(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	if seed != nil {
		if err := seedPostgres(ctx, pg, seed, log); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	log.Info("Connected to Postgres store")
	return pg, func() { db.Close() }, nil
}

func seedPostgres(ctx context.Context, pg *store.PostgresStore, plan *domain.Plan, log *logrus.Logger) error {
	existing, err := pg.ListLoans(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Infof("Store already holds %d loans; skipping seed", len(existing))
		return nil
	}
	for i := range plan.Loans {
		if err := pg.CreateLoan(ctx, &plan.Loans[i]); err != nil {
			return err
		}
	}
	for i := range plan.Portfolios {
		if err := pg.CreatePortfolio(ctx, &plan.Portfolios[i]); err != nil {
			return err
		}
	}
	log.Infof("Seeded store with %d loans and %d portfolios", len(plan.Loans), len(plan.Portfolios))
	return nil
}

// openCache returns Redis when it is configured and reachable, else memory.
func openCache(ctx context.Context, cfg *config.ServerConfig, log *logrus.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache()
	}
	rc := cache.NewRedisCache(cfg.RedisAddr)
	if err := rc.Ping(ctx); err != nil {
		log.Warnf("Redis at %s unavailable, using in-memory cache: %v", cfg.RedisAddr, err)
		_ = rc.Close()
		return cache.NewMemoryCache()
	}
	log.Infof("Using Redis cache at %s", cfg.RedisAddr)
	return rc
}

func newExampleConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "example-config [FILE]",
		Short: "Write an example plan file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := "example_plan.yaml"
			if len(args) == 1 {
				filename = args[0]
			}
			parser := config.NewInputParser()
			if err := parser.SaveToFile(parser.CreateExamplePlan(), filename); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Example plan written to %s\n", filename)
			return nil
		},
	}
}
