package tryon

import (
	"math"
	"time"

	"tryon/internal/domain"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform result returned to every transport. Exactly one of
// ResultImage and Error is set.
type Envelope struct {
	ResultImage    string  `json:"result_image,omitempty"`
	Error          string  `json:"error,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
	Status         string  `json:"status"`

	// Kind classifies failures for transports that map them to status codes.
	Kind domain.Kind `json:"-"`
}

func (e Envelope) Succeeded() bool { return e.Status == StatusSuccess }

func successEnvelope(image string, elapsed time.Duration) Envelope {
	return Envelope{ResultImage: image, ProcessingTime: roundSeconds(elapsed), Status: StatusSuccess}
}

// FailureEnvelope builds an error envelope for err.
func FailureEnvelope(err error, elapsed time.Duration) Envelope {
	return Envelope{
		Error:          err.Error(),
		ProcessingTime: roundSeconds(elapsed),
		Status:         StatusError,
		Kind:           domain.KindOf(err),
	}
}

// roundSeconds converts d to seconds rounded to two decimals, clamped at 0.
func roundSeconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return math.Round(d.Seconds()*100) / 100
}
