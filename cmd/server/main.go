package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/pairing-relay-go/internal/config"
	"github.com/openclaw/pairing-relay-go/internal/database"
	"github.com/openclaw/pairing-relay-go/internal/jobs"
	"github.com/openclaw/pairing-relay-go/internal/notify"
	"github.com/openclaw/pairing-relay-go/internal/redis"
	"github.com/openclaw/pairing-relay-go/internal/repository"
	"github.com/openclaw/pairing-relay-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	hub := notify.NewHub()
	defer hub.Close()

	registry := service.NewRegistry(service.NewCodeGenerator(cfg.PairingCodeLength), hub, service.RegistryOptions{
		TTL:       cfg.PairingTTL(),
		Retention: cfg.PairingRetention(),
	})
	statusService := service.NewStatusService(registry)

	sweepJob := jobs.NewSweepJob(cfg.SweepInterval()).
		Add("pairing records", registry.Sweep)

	var limiter service.Limiter
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected, using shared rate limiter")
		limiter = service.NewRateLimiter(redisClient.Client)
	} else {
		local := service.NewLocalLimiter()
		sweepJob.Add("rate limit buckets", local.Prune)
		log.Info().Msg("no REDIS_URL, using in-process rate limiter")
		limiter = local
	}

	var premiumRepo repository.PremiumCodeRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare database schema")
		}
		cancel()
		log.Info().Msg("database connected")
		premiumRepo = repository.NewPremiumCodeRepository(db.DB)
	} else {
		log.Info().Str("file", cfg.PremiumCodesFile).Msg("using file premium code store")
		premiumRepo = repository.NewFilePremiumCodeRepository(cfg.PremiumCodesFile)
	}

	router := newRouter(routerDeps{
		cfg:      cfg,
		registry: registry,
		hub:      hub,
		status:   statusService,
		premium:  service.NewPremiumService(premiumRepo),
		limiter:  limiter,
	})

	sweepJob.Start()
	defer sweepJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // SSE and WebSocket streams
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("env", cfg.AppEnv).
			Dur("pairingTTL", cfg.PairingTTL()).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	// end push streams first so Shutdown does not wait on them
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
