package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tryon/internal/http/handlers"
	httpapi "tryon/internal/http/httpapi"
	"tryon/internal/imageproc"
	"tryon/internal/infra"
	"tryon/internal/infra/credentials"
	"tryon/internal/jobstore"
	"tryon/internal/queue"
	"tryon/internal/storage"
	"tryon/internal/synthesis"
	"tryon/internal/tryon"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		history *jobstore.Store
		creds   *credentials.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: db connection failed")
		}
		defer pool.Close()

		runner := infra.NewSQLRunner(pool, logger)
		history = jobstore.NewStore(runner)
		if err := history.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("api: job history schema")
		}
		creds = credentials.NewStore(runner)
		if err := creds.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("api: credentials schema")
		}
	}

	opts := synthesis.ConfigOptions(cfg, &logger)
	if opts.GeminiAPIKey, err = creds.Resolve(ctx, credentials.ProviderGemini, opts.GeminiAPIKey); err != nil {
		logger.Warn().Err(err).Msg("api: failed to load gemini api key from store")
	}
	if opts.RemoteAPIKey, err = creds.Resolve(ctx, credentials.ProviderRemote, opts.RemoteAPIKey); err != nil {
		logger.Warn().Err(err).Msg("api: failed to load remote api key from store")
	}

	logger.Info().Str("provider", cfg.SynthesisProvider).Msg("api: loading synthesis provider")
	provider, err := synthesis.Open(ctx, opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to load synthesis provider")
	}
	limited := synthesis.Limit(provider, cfg.SynthesisConcurrency)
	defer limited.Close()

	handlerOpts := []tryon.Option{
		tryon.WithOutput(tryon.OutputDataURL),
		tryon.WithMissingMessage(tryon.MissingFieldsMessage),
		tryon.WithEnhancement(cfg.Enhance),
		tryon.WithLogger(logger),
	}
	if cfg.EnforceBounds {
		handlerOpts = append(handlerOpts, tryon.WithBounds(imageproc.DefaultBounds))
	}

	app := handlers.NewApp(tryon.NewHandler(limited, handlerOpts...), limited)
	app.Logger = logger
	if history != nil {
		app.History = history
	}
	if cfg.StoragePath != "" {
		fileStore, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: failed to configure storage")
		}
		app.Results = fileStore
	}

	if cfg.RedisEnabled() {
		rdb, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: redis connection failed")
		}
		defer rdb.Close()
		app.Broker = queue.NewRedisBroker(rdb, cfg.QueueName, cfg.ResultTTL)
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("provider", limited.Name()).
			Str("device", limited.Device()).
			Msg("api: listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPWriteTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	logger.Info().Msg("api: stopped")
}
