package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tryon/internal/domain"
	"tryon/internal/middleware"
	"tryon/internal/queue"
	"tryon/internal/tryon"
)

// TryOn serves POST /api/try-on. Validation failures answer 400, every other
// failure 500; both carry the error envelope.
func (a *App) TryOn(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.json(w, http.StatusRequestEntityTooLarge, tryon.FailureEnvelope(errors.New("Request body too large"), time.Since(started)))
			return
		}
		a.json(w, http.StatusBadRequest, tryon.FailureEnvelope(domain.ValidationError("Failed to read request body"), time.Since(started)))
		return
	}

	var env tryon.Envelope
	payload, err := tryon.ParsePayload(body)
	if err != nil {
		env = tryon.FailureEnvelope(err, time.Since(started))
	} else {
		env = a.Handler.Process(r.Context(), payload)
	}

	code := statusCode(env)
	if code != http.StatusOK {
		a.Logger.Warn().
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("kind", string(env.Kind)).
			Str("error", env.Error).
			Msg("http: try-on failed")
	}
	a.record(r, env)
	a.json(w, code, env)
}

func statusCode(env tryon.Envelope) int {
	switch {
	case env.Succeeded():
		return http.StatusOK
	case env.Kind == domain.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) record(r *http.Request, env tryon.Envelope) {
	if a.History == nil {
		return
	}
	id := middleware.RequestIDFromContext(r.Context())
	if _, err := uuid.Parse(id); err != nil {
		id = ""
	}
	rec := domain.JobRecord{
		ID:             id,
		Transport:      domain.TransportHTTP,
		Status:         queue.StatusOf(env),
		Error:          env.Error,
		ProcessingTime: env.ProcessingTime,
	}
	if _, err := a.History.Record(r.Context(), rec); err != nil {
		a.Logger.Warn().Err(err).Msg("http: failed to record request")
	}
}
