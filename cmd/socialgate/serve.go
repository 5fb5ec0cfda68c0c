package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/socialgate/internal/account"
	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/config"
	accountctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/account"
	healthctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/health"
	socialctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/social"
	"github.com/dropDatabas3/socialgate/internal/http/router"
	accountsvc "github.com/dropDatabas3/socialgate/internal/http/services/account"
	healthsvc "github.com/dropDatabas3/socialgate/internal/http/services/health"
	socialsvc "github.com/dropDatabas3/socialgate/internal/http/services/social"
	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/rate"
	"github.com/dropDatabas3/socialgate/internal/session"
	"github.com/dropDatabas3/socialgate/internal/state"
	"github.com/dropDatabas3/socialgate/internal/store"
	pgstore "github.com/dropDatabas3/socialgate/internal/store/pg"
	migrations "github.com/dropDatabas3/socialgate/migrations/postgres"
)

func newServeCmd(flagConfig, flagEnvFile *string) *cobra.Command {
	var flagMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el gateway HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env primero: pisa nada, solo completa el entorno.
			_ = godotenv.Load(*flagEnvFile)

			cfg, err := config.Load(*flagConfig)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger.Init(logger.Config{Env: cfg.App.Env, Level: "info", ServiceName: "socialgate"})
			defer func() { _ = logger.Sync() }()

			return serve(cmd.Context(), cfg, flagMigrate)
		},
	}
	cmd.Flags().BoolVar(&flagMigrate, "migrate", false, "aplica las migraciones antes de servir")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, migrate bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.L().With(logger.Component("serve"))

	// Identity store.
	var identity store.IdentityStore
	switch cfg.Storage.Driver {
	case "postgres":
		var pgcfg pgstore.Config
		pgcfg.MaxConns = int32(cfg.Storage.Postgres.MaxConns)
		pgcfg.MinConns = int32(cfg.Storage.Postgres.MinConns)
		if cfg.Storage.Postgres.ConnMaxLifetime != "" {
			pgcfg.ConnMaxLifetime, _ = time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime)
		}
		pg, err := pgstore.New(ctx, cfg.Storage.DSN, pgcfg)
		if err != nil {
			return fmt.Errorf("postgres store: %w", err)
		}
		if migrate {
			res, err := pg.Migrate(ctx, migrations.FS)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied",
				logger.Count(len(res.Applied)),
				logger.Int("skipped", len(res.Skipped)),
			)
		}
		identity = pg
	default:
		identity = store.NewMemory()
	}
	defer identity.Close()

	// State cache.
	stateCache, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return fmt.Errorf("state cache: %w", err)
	}
	defer func() { _ = stateCache.Close() }()

	// Provider registry.
	var clients []*oauth.Client
	for pid, p := range cfg.EnabledProviders() {
		c, err := oauth.New(pid, p.ClientID, p.ClientSecret, p.RedirectURL, p.Scopes, cfg.UpstreamTimeout())
		if err != nil {
			return fmt.Errorf("provider %s: %w", pid, err)
		}
		clients = append(clients, c)
	}
	registry := oauth.NewRegistry(clients...)
	log.Info("providers configured", logger.Count(len(clients)))

	// Sessions.
	if cfg.Session.Secret == "" {
		return errors.New("session.secret (or SESSION_SECRET) is required")
	}
	sessions, err := session.New([]byte(cfg.Session.Secret), cfg.Session.Issuer, cfg.SessionTTL())
	if err != nil {
		return fmt.Errorf("session issuer: %w", err)
	}

	// Core wiring.
	states := state.New(stateCache, cfg.StateTTL())
	linker := account.New(identity)

	if err := metrics.RegisterSocial(nil); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	authorizeSvc := socialsvc.NewAuthorizeService(socialsvc.AuthorizeDeps{
		Registry: registry,
		States:   states,
	})
	callbackSvc := socialsvc.NewCallbackService(socialsvc.CallbackDeps{
		Registry:        registry,
		States:          states,
		Linker:          linker,
		Sessions:        sessions,
		FrontendBaseURL: cfg.Frontend.BaseURL,
	})

	// Rate limiting del flujo OAuth. Con cache redis comparte la ventana
	// entre instancias; con memoria queda por instancia.
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		if cfg.Cache.Kind == "redis" {
			limiter = rate.NewRedisLimiter(rdb.NewClient(&rdb.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			}), cfg.Cache.Redis.Prefix+"rl:", cfg.Rate.MaxRequests, cfg.RateWindow())
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.RateWindow())
		}
	}

	handler := router.New(router.Deps{
		Social:          socialctrl.NewControllers(authorizeSvc, callbackSvc),
		Health:          healthctrl.NewController(healthsvc.New(identity, stateCache, cfg.Providers.Active)),
		Account:         accountctrl.NewController(accountsvc.New(linker)),
		Sessions:        sessions,
		RateLimiter:     limiter,
		DefaultProvider: cfg.Providers.Active,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
