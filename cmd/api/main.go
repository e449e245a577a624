package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "tenant_search/internal/adapters/http_server"
	"tenant_search/internal/adapters/observability"
	redisad "tenant_search/internal/adapters/redis"
	"tenant_search/internal/adapters/rentapi"
	"tenant_search/internal/app"
	"tenant_search/internal/domain"
	"tenant_search/internal/shared"
	mysqlrepo "tenant_search/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// rental API
	client, err := rentapi.New(cfg.RentalBase, rentapi.Options{
		Token:       cfg.RentalToken,
		RPS:         cfg.RentalRPS,
		MaxInFlight: cfg.RentalInFlight,
		Attempts:    cfg.RentalAttempts,
		Timeout:     cfg.RentalTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rental API client")
	}

	var reviews domain.ReviewSource = app.NewAPIReviews(client)
	if cfg.RedisAddr != "" {
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; reviews cache errors will be logged")
		}
		reviews = app.NewCachedReviews(reviews, cache, cfg.CacheTTL)
		log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("reviews cache enabled")
	}
	agg := app.NewRatingAggregator(reviews)

	// search log
	var searchLog domain.SearchLog
	if cfg.MySQLDSN != "" {
		dsn, err := mysqlrepo.NormalizeDSN(cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid MYSQL_DSN")
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		searchLog = mysqlrepo.New(db)
	}

	opts := []app.Option{app.WithHooks(server.MetricsHooks())}
	if searchLog != nil {
		opts = append(opts, app.WithSearchLog(searchLog))
	}
	sessions := server.NewSessions(func(id string, n domain.Notifier, nav domain.Navigator) *app.Session {
		return app.NewSession(id, client, agg, n, nav, opts...)
	})
	go sweep(ctx, sessions, cfg.SessionIdle)

	// http
	srv := server.New(cfg.RequestTimeout())
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Sessions: sessions, SearchLog: searchLog, RatingsWait: cfg.RatingsWait})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("rental_api", cfg.RentalBase).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

// sweep drops idle sessions until ctx is done.
func sweep(ctx context.Context, s *server.Sessions, idle time.Duration) {
	t := time.NewTicker(max(idle/4, time.Minute))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(idle); n > 0 {
				log.Info().Int("dropped", n).Msg("idle sessions swept")
			}
		}
	}
}
