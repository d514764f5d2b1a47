package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tryon/internal/domain"
	"tryon/internal/tryon"
)

// Broker moves jobs between producers and workers and keeps finished
// envelopes for polling clients.
type Broker interface {
	Enqueue(ctx context.Context, job Job) (string, error)
	// Pop blocks up to timeout and returns domain.ErrQueueEmpty when no job
	// arrived.
	Pop(ctx context.Context, timeout time.Duration) (Job, error)
	Complete(ctx context.Context, id string, env tryon.Envelope) error
	// Result returns domain.ErrNotFound for unknown or expired ids.
	Result(ctx context.Context, id string) (Status, error)
}

// Status is what a polling client sees for a job.
type Status struct {
	ID       string
	State    domain.JobStatus
	Envelope *tryon.Envelope
}

// StatusOf maps a finished envelope to its job state.
func StatusOf(env tryon.Envelope) domain.JobStatus {
	if env.Succeeded() {
		return domain.JobStatusCompleted
	}
	return domain.JobStatusFailed
}

// RedisBroker keeps pending jobs in a Redis list (LPUSH/BRPOP) and results
// in expiring string keys.
type RedisBroker struct {
	rdb   *redis.Client
	queue string
	ttl   time.Duration
}

func NewRedisBroker(rdb *redis.Client, queue string, ttl time.Duration) *RedisBroker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisBroker{rdb: rdb, queue: queue, ttl: ttl}
}

func (b *RedisBroker) resultKey(id string) string  { return b.queue + ":result:" + id }
func (b *RedisBroker) pendingKey(id string) string { return b.queue + ":pending:" + id }

func (b *RedisBroker) Enqueue(ctx context.Context, job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("queue: encode job: %w", err)
	}
	pipe := b.rdb.TxPipeline()
	pipe.Set(ctx, b.pendingKey(job.ID), string(domain.JobStatusQueued), b.ttl)
	pipe.LPush(ctx, b.queue, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("queue: enqueue %s: %w", job.ID, err)
	}
	return job.ID, nil
}

func (b *RedisBroker) Pop(ctx context.Context, timeout time.Duration) (Job, error) {
	res, err := b.rdb.BRPop(ctx, timeout, b.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, domain.ErrQueueEmpty
		}
		return Job{}, fmt.Errorf("queue: pop: %w", err)
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return Job{}, fmt.Errorf("queue: unexpected pop reply of %d elements", len(res))
	}
	return ParseJob([]byte(res[1]))
}

func (b *RedisBroker) Complete(ctx context.Context, id string, env tryon.Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("queue: encode result: %w", err)
	}
	pipe := b.rdb.TxPipeline()
	pipe.Set(ctx, b.resultKey(id), raw, b.ttl)
	pipe.Del(ctx, b.pendingKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue: complete %s: %w", id, err)
	}
	return nil
}

func (b *RedisBroker) Result(ctx context.Context, id string) (Status, error) {
	raw, err := b.rdb.Get(ctx, b.resultKey(id)).Bytes()
	switch {
	case err == nil:
		var env tryon.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return Status{}, fmt.Errorf("queue: decode result %s: %w", id, err)
		}
		return Status{ID: id, State: StatusOf(env), Envelope: &env}, nil
	case !errors.Is(err, redis.Nil):
		return Status{}, fmt.Errorf("queue: result %s: %w", id, err)
	}

	n, err := b.rdb.Exists(ctx, b.pendingKey(id)).Result()
	if err != nil {
		return Status{}, fmt.Errorf("queue: pending %s: %w", id, err)
	}
	if n == 0 {
		return Status{}, domain.ErrNotFound
	}
	return Status{ID: id, State: domain.JobStatusQueued}, nil
}

var _ Broker = (*RedisBroker)(nil)
