// Package queue is the job-queue transport: jobs arrive as {id, input} and
// the handler's envelope is returned as-is, with the result as bare base64.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"tryon/internal/infra"
	"tryon/internal/tryon"
)

// Job is one queued try-on request.
type Job struct {
	ID    string        `json:"id"`
	Input tryon.Payload `json:"input"`
}

// ParseJob decodes a job document. A document without input is accepted and
// fails later with the missing inputs message. A missing id is generated.
func ParseJob(data []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("queue: decode job: %w", err)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	return job, nil
}

// Handle runs one job through h and returns the envelope unchanged.
func Handle(ctx context.Context, h *tryon.Handler, job Job, logger infra.Logger) tryon.Envelope {
	logger.Info().Str("job_id", job.ID).Msg("queue: processing job")
	env := h.Process(ctx, job.Input)
	logger.Info().
		Str("job_id", job.ID).
		Str("status", env.Status).
		Float64("processing_time", env.ProcessingTime).
		Msg("queue: job finished")
	return env
}
