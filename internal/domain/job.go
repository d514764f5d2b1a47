package domain

import "time"

// Transport identifies which surface served a job.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportQueue Transport = "queue"
)

// JobStatus enumerates the lifecycle of a queued job as reported to clients.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "IN_QUEUE"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// JobRecord is the persisted summary of one processed request or job.
// Images are never stored here.
type JobRecord struct {
	ID             string
	Transport      Transport
	Status         JobStatus
	Error          string
	ProcessingTime float64
	CreatedAt      time.Time
}
