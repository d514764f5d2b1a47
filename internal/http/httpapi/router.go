package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tryon/internal/http/handlers"
	"tryon/internal/infra"
	"tryon/internal/middleware"
)

type Options struct {
	CORSOrigins     []string
	RateLimitPerMin int
	MaxBodyBytes    int64
	Logger          infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/", app.Index)
	r.Get("/health", app.Health)
	r.Handle("/static/*", handlers.Static())

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		if opts.MaxBodyBytes > 0 {
			r.Use(middleware.BodyLimit(opts.MaxBodyBytes))
		}

		r.Post("/try-on", app.TryOn)

		if app.Broker != nil {
			r.Post("/jobs", app.EnqueueJob)
		}
		if app.Broker != nil || app.History != nil {
			r.Get("/jobs/{id}", app.JobStatus)
		}
		if app.History != nil {
			r.Get("/jobs", app.RecentJobs)
		}
	})

	return r
}
