package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tryon/internal/imagecodec"
	"tryon/internal/infra"
)

// ErrMissingEndpoint indicates that the remote provider has no base URL.
var ErrMissingEndpoint = errors.New("remote: base url is required")

// RemoteOptions configures the HTTP inference client.
type RemoteOptions struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Remote calls an external diffusion inference server over HTTP. The server
// exposes GET /health and POST /synthesize.
type Remote struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *infra.Logger

	ready  atomic.Bool
	device atomic.Value
}

type remoteRequest struct {
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	Image             string  `json:"image"`
	ControlImage      string  `json:"control_image"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	Strength          float64 `json:"strength"`
	Seed              int64   `json:"seed"`
}

type remoteResponse struct {
	Image  string   `json:"image"`
	Images []string `json:"images"`
	Error  string   `json:"error"`
}

type remoteHealth struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
}

// NewRemote constructs a client with defaults for unset options.
func NewRemote(opts RemoteOptions) (*Remote, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.Logger(zerolog.Nop())
		logger = &l
	}
	r := &Remote{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
		logger:     logger,
	}
	r.device.Store("remote")
	return r, nil
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Device() string { return r.device.Load().(string) }

func (r *Remote) Ready() bool { return r.ready.Load() }

// Load checks the inference server and marks the provider ready once the
// server reports a loaded model.
func (r *Remote) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("remote: build health request: %w", err)
	}
	r.authorize(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote: health request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote: health status %d", resp.StatusCode)
	}
	var health remoteHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("remote: decode health: %w", err)
	}
	if !health.ModelLoaded {
		return ErrNotReady
	}
	if d := strings.TrimSpace(health.Device); d != "" {
		r.device.Store(d)
	}
	r.ready.Store(true)
	r.logger.Info().Str("endpoint", r.baseURL).Str("device", r.Device()).Msg("remote: inference server ready")
	return nil
}

func (r *Remote) Synthesize(ctx context.Context, req Request) (image.Image, error) {
	if !r.Ready() {
		return nil, ErrNotReady
	}
	person, err := imagecodec.Encode(req.Person)
	if err != nil {
		return nil, fmt.Errorf("remote: encode person image: %w", err)
	}
	garment, err := imagecodec.Encode(req.Garment)
	if err != nil {
		return nil, fmt.Errorf("remote: encode garment image: %w", err)
	}
	payload := remoteRequest{
		Prompt:            req.Prompt,
		NegativePrompt:    req.NegativePrompt,
		Image:             person,
		ControlImage:      garment,
		NumInferenceSteps: req.Params.Steps,
		GuidanceScale:     req.Params.GuidanceScale,
		Strength:          req.Params.Strength,
		Seed:              req.Params.Seed,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("remote: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	r.authorize(httpReq)

	started := time.Now()
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("remote: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read response: %w", err)
	}

	var decoded remoteResponse
	jsonErr := json.Unmarshal(raw, &decoded)
	if resp.StatusCode >= 300 {
		if jsonErr == nil && decoded.Error != "" {
			return nil, fmt.Errorf("remote: %s (status %d)", decoded.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("remote: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("remote: decode response: %w", jsonErr)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("remote: %s", decoded.Error)
	}

	encoded := decoded.Image
	if encoded == "" && len(decoded.Images) > 0 {
		encoded = decoded.Images[0]
	}
	if encoded == "" {
		return nil, ErrNoImage
	}
	img, err := imagecodec.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	r.logger.Debug().
		Dur("elapsed", time.Since(started)).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("remote: synthesized image")
	return img, nil
}

func (r *Remote) authorize(req *http.Request) {
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
}
