package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

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

	jobFile := flag.String("job", "", "process a single job document (path or - for stdin), print the envelope and exit")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		history *jobstore.Store
		creds   *credentials.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: db connection failed")
		}
		defer pool.Close()

		runner := infra.NewSQLRunner(pool, logger)
		history = jobstore.NewStore(runner)
		if err := history.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("worker: job history schema")
		}
		creds = credentials.NewStore(runner)
		if err := creds.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("worker: credentials schema")
		}
	}

	opts := synthesis.ConfigOptions(cfg, &logger)
	if opts.GeminiAPIKey, err = creds.Resolve(ctx, credentials.ProviderGemini, opts.GeminiAPIKey); err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load gemini api key from store")
	}
	if opts.RemoteAPIKey, err = creds.Resolve(ctx, credentials.ProviderRemote, opts.RemoteAPIKey); err != nil {
		logger.Warn().Err(err).Msg("worker: failed to load remote api key from store")
	}

	logger.Info().Str("provider", cfg.SynthesisProvider).Msg("worker: loading synthesis provider")
	provider, err := synthesis.Open(ctx, opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to load synthesis provider")
	}
	limited := synthesis.Limit(provider, cfg.SynthesisConcurrency)
	defer limited.Close()

	handlerOpts := []tryon.Option{
		tryon.WithOutput(tryon.OutputBase64),
		tryon.WithEnhancement(cfg.Enhance),
		tryon.WithLogger(logger),
	}
	if cfg.EnforceBounds {
		handlerOpts = append(handlerOpts, tryon.WithBounds(imageproc.DefaultBounds))
	}
	handler := tryon.NewHandler(limited, handlerOpts...)

	if *jobFile != "" {
		if err := runOnce(ctx, handler, *jobFile, logger); err != nil {
			logger.Fatal().Err(err).Msg("worker: local job failed")
		}
		return
	}

	if !cfg.RedisEnabled() {
		logger.Fatal().Msg("worker: REDIS_HOST is required unless -job is given")
	}
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	defer rdb.Close()

	workerOpts := queue.WorkerOptions{
		Concurrency: cfg.WorkerCount,
		Poll:        cfg.WorkerPoll,
		Logger:      logger,
	}
	if history != nil {
		workerOpts.Recorder = history
	}
	if cfg.StoragePath != "" {
		storagePath := cfg.StoragePath
		if !filepath.IsAbs(storagePath) {
			if abs, err := filepath.Abs(storagePath); err == nil {
				storagePath = abs
			}
		}
		fileStore, err := storage.NewFileStore(storagePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure storage")
		}
		workerOpts.Archiver = fileStore
	}

	worker := queue.NewWorker(queue.NewRedisBroker(rdb, cfg.QueueName, cfg.ResultTTL), handler, workerOpts)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// runOnce handles one job document and prints its envelope to stdout.
func runOnce(ctx context.Context, handler *tryon.Handler, path string, logger infra.Logger) error {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read job: %w", err)
	}
	job, err := queue.ParseJob(raw)
	if err != nil {
		return err
	}
	env := queue.Handle(ctx, handler, job, logger)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
