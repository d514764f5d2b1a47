package synthesis

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tryon/internal/infra"
)

// Options selects and configures the provider built by Open.
type Options struct {
	Name string

	RemoteURL     string
	RemoteAPIKey  string
	RemoteTimeout time.Duration
	HTTPClient    *http.Client

	GeminiAPIKey string
	GeminiModel  string

	MockDelay time.Duration

	Logger *infra.Logger
}

// Open constructs the named provider and runs its Load step. A provider that
// fails to load is returned as an error so the caller can refuse to start.
func Open(ctx context.Context, opts Options) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Name)) {
	case "", "blend":
		p = NewBlend()
	case "overlay":
		p = NewOverlay()
	case "mock":
		p = NewMock(opts.MockDelay)
	case "remote":
		p, err = NewRemote(RemoteOptions{
			BaseURL:        opts.RemoteURL,
			APIKey:         opts.RemoteAPIKey,
			HTTPClient:     opts.HTTPClient,
			Logger:         opts.Logger,
			RequestTimeout: opts.RemoteTimeout,
		})
	case "gemini":
		p, err = NewGemini(GeminiOptions{
			APIKey:     opts.GeminiAPIKey,
			Model:      opts.GeminiModel,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
	default:
		return nil, fmt.Errorf("synthesis: unknown provider %q", opts.Name)
	}
	if err != nil {
		return nil, err
	}
	if l, ok := p.(Loader); ok {
		if err := l.Load(ctx); err != nil {
			return nil, fmt.Errorf("synthesis: load %s: %w", p.Name(), err)
		}
	}
	return p, nil
}

// ConfigOptions maps the service configuration onto provider options.
func ConfigOptions(cfg *infra.Config, logger *infra.Logger) Options {
	return Options{
		Name:          cfg.SynthesisProvider,
		RemoteURL:     cfg.RemoteSynthesisURL,
		RemoteAPIKey:  cfg.RemoteSynthesisKey,
		RemoteTimeout: cfg.RemoteTimeout,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		MockDelay:     cfg.MockDelay,
		Logger:        logger,
	}
}
