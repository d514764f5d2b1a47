package queue

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/storage"
	"tryon/internal/tryon"
)

// Recorder persists a summary of each finished job.
type Recorder interface {
	Record(ctx context.Context, rec domain.JobRecord) (domain.JobRecord, error)
}

// Archiver stores result images.
type Archiver interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

type WorkerOptions struct {
	Concurrency int
	Poll        time.Duration
	Logger      infra.Logger
	Recorder    Recorder
	Archiver    Archiver
}

// Worker consumes jobs from a broker until its context is cancelled.
type Worker struct {
	broker      Broker
	handler     *tryon.Handler
	concurrency int
	poll        time.Duration
	logger      infra.Logger
	recorder    Recorder
	archiver    Archiver
}

func NewWorker(broker Broker, handler *tryon.Handler, opts WorkerOptions) *Worker {
	w := &Worker{
		broker:      broker,
		handler:     handler,
		concurrency: opts.Concurrency,
		poll:        opts.Poll,
		logger:      opts.Logger,
		recorder:    opts.Recorder,
		archiver:    opts.Archiver,
	}
	if w.concurrency < 1 {
		w.concurrency = 1
	}
	if w.poll <= 0 {
		w.poll = 5 * time.Second
	}
	return w
}

// Run starts the consumers and blocks until ctx is done. It returns nil on
// cancellation.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("worker: started")
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		consumer := w.logger.With().Int("consumer", i).Logger()
		g.Go(func() error { return w.consume(ctx, consumer) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) consume(ctx context.Context, logger zerolog.Logger) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		job, err := w.broker.Pop(ctx, w.poll)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrQueueEmpty):
				continue
			case ctx.Err() != nil:
				return nil
			}
			logger.Error().Err(err).Msg("worker: failed to pop job")
			if !sleep(ctx, w.poll) {
				return nil
			}
			continue
		}
		w.process(ctx, job, logger)
	}
}

// process handles one job. The job's own work is not cut short by shutdown;
// only the bookkeeping after it uses a fresh context.
func (w *Worker) process(ctx context.Context, job Job, logger zerolog.Logger) {
	env := Handle(context.WithoutCancel(ctx), w.handler, job, logger)

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := w.broker.Complete(bg, job.ID, env); err != nil {
		logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: failed to store result")
	}
	if w.recorder != nil {
		rec := domain.JobRecord{
			ID:             job.ID,
			Transport:      domain.TransportQueue,
			Status:         StatusOf(env),
			Error:          env.Error,
			ProcessingTime: env.ProcessingTime,
		}
		if _, err := w.recorder.Record(bg, rec); err != nil {
			logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: failed to record job")
		}
	}
	if w.archiver != nil && env.Succeeded() {
		png, err := base64.StdEncoding.DecodeString(env.ResultImage)
		if err != nil {
			logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: result is not base64")
			return
		}
		key, err := w.archiver.Write(bg, storage.ResultKey(job.ID), png)
		if err != nil {
			logger.Warn().Err(err).Str("job_id", job.ID).Msg("worker: failed to archive result")
			return
		}
		logger.Debug().Str("job_id", job.ID).Str("key", key).Msg("worker: archived result")
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
