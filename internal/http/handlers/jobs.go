package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tryon/internal/domain"
	"tryon/internal/imagecodec"
	"tryon/internal/queue"
	"tryon/internal/storage"
	"tryon/internal/tryon"
)

type jobResponse struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	Output         *tryon.Envelope `json:"output,omitempty"`
	Error          string          `json:"error,omitempty"`
	ProcessingTime *float64        `json:"processing_time,omitempty"`
}

type historyItem struct {
	ID             string  `json:"id"`
	Transport      string  `json:"transport"`
	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
	CreatedAt      string  `json:"created_at"`
}

// EnqueueJob serves POST /api/jobs with a {input:{...}} body.
func (a *App) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		a.error(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	job, err := queue.ParseJob(body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	id, err := a.Broker.Enqueue(r.Context(), job)
	if err != nil {
		a.Logger.Error().Err(err).Msg("http: enqueue failed")
		a.error(w, http.StatusServiceUnavailable, "Queue unavailable")
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{ID: id, Status: string(domain.JobStatusQueued)})
}

// JobStatus serves GET /api/jobs/{id}. Results live in the broker until they
// expire; the job history answers after that.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if a.Broker != nil {
		status, err := a.Broker.Result(r.Context(), id)
		if err == nil {
			a.json(w, http.StatusOK, jobResponse{ID: id, Status: string(status.State), Output: status.Envelope})
			return
		}
		if !errors.Is(err, domain.ErrNotFound) {
			a.Logger.Error().Err(err).Str("job_id", id).Msg("http: job lookup failed")
			a.error(w, http.StatusServiceUnavailable, "Queue unavailable")
			return
		}
	}
	if a.History != nil {
		rec, err := a.History.Get(r.Context(), id)
		if err == nil {
			pt := rec.ProcessingTime
			a.json(w, http.StatusOK, jobResponse{
				ID:             rec.ID,
				Status:         string(rec.Status),
				Output:         a.archivedOutput(r, rec),
				Error:          rec.Error,
				ProcessingTime: &pt,
			})
			return
		}
		if !errors.Is(err, domain.ErrNotFound) {
			a.Logger.Error().Err(err).Str("job_id", id).Msg("http: history lookup failed")
		}
	}
	a.error(w, http.StatusNotFound, "Job not found")
}

// RecentJobs serves GET /api/jobs?limit=N from the job history.
func (a *App) RecentJobs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := a.History.Recent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("http: recent jobs failed")
		a.error(w, http.StatusInternalServerError, "Failed to load jobs")
		return
	}
	items := make([]historyItem, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItem{
			ID:             rec.ID,
			Transport:      string(rec.Transport),
			Status:         string(rec.Status),
			Error:          rec.Error,
			ProcessingTime: rec.ProcessingTime,
			CreatedAt:      rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": items})
}

// archivedOutput rebuilds the success envelope of a completed job from its
// archived image. It returns nil when nothing was archived.
func (a *App) archivedOutput(r *http.Request, rec domain.JobRecord) *tryon.Envelope {
	if a.Results == nil || rec.Status != domain.JobStatusCompleted {
		return nil
	}
	data, err := a.Results.Read(r.Context(), storage.ResultKey(rec.ID))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.Logger.Warn().Err(err).Str("job_id", rec.ID).Msg("http: failed to read archived result")
		}
		return nil
	}
	return &tryon.Envelope{
		ResultImage:    imagecodec.DataURLPrefix + base64.StdEncoding.EncodeToString(data),
		ProcessingTime: rec.ProcessingTime,
		Status:         tryon.StatusSuccess,
	}
}
