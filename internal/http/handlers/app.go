// Package handlers implements the web transport of the try-on service.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/queue"
	"tryon/internal/synthesis"
	"tryon/internal/tryon"
)

// JobHistory is the job store surface used by the handlers.
type JobHistory interface {
	Record(ctx context.Context, rec domain.JobRecord) (domain.JobRecord, error)
	Get(ctx context.Context, id string) (domain.JobRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.JobRecord, error)
}

// ResultReader reads archived result images.
type ResultReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

type App struct {
	Handler  *tryon.Handler
	Provider synthesis.Provider
	// Broker, History and Results are optional.
	Broker  queue.Broker
	History JobHistory
	Results ResultReader
	Logger  infra.Logger
}

func NewApp(handler *tryon.Handler, provider synthesis.Provider) *App {
	return &App{Handler: handler, Provider: provider, Logger: zerolog.Nop()}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes a failure envelope without timing, for requests that never
// reached the try-on handler.
func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, tryon.Envelope{Error: msg, Status: tryon.StatusError})
}
