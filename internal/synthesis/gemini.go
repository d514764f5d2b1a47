package synthesis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"tryon/internal/infra"
)

// DefaultGeminiModel is the Gemini model that returns inline images.
const DefaultGeminiModel = "gemini-2.5-flash-image"

// ErrMissingAPIKey indicates that the Gemini provider has no credentials.
var ErrMissingAPIKey = errors.New("gemini: api key is required")

// GeminiOptions configures the Gemini image provider. BaseURL and HTTPClient
// are only set to reach a non-default endpoint.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Gemini asks a Gemini image model to redraw the subject wearing the garment.
// Gemini exposes no sampler controls, so steps, guidance and strength are
// dropped; the seed is forwarded.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger

	mu     sync.RWMutex
	client *genai.Client
}

func NewGemini(opts GeminiOptions) (*Gemini, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultGeminiModel
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.Logger(zerolog.Nop())
		logger = &l
	}
	return &Gemini{
		apiKey:     key,
		model:      model,
		baseURL:    strings.TrimSpace(opts.BaseURL),
		httpClient: opts.HTTPClient,
		logger:     logger,
	}, nil
}

func (g *Gemini) Name() string   { return "gemini" }
func (g *Gemini) Device() string { return "remote" }

func (g *Gemini) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.client != nil
}

// Load creates the API client.
func (g *Gemini) Load(ctx context.Context) error {
	cfg := &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("gemini: new client: %w", err)
	}
	g.mu.Lock()
	g.client = client
	g.mu.Unlock()
	g.logger.Info().Str("model", g.model).Msg("gemini: client ready")
	return nil
}

func (g *Gemini) Synthesize(ctx context.Context, req Request) (image.Image, error) {
	g.mu.RLock()
	client := g.client
	g.mu.RUnlock()
	if client == nil {
		return nil, ErrNotReady
	}
	if req.Person == nil || req.Garment == nil {
		return nil, ErrNoImage
	}
	person, err := pngBytes(req.Person)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode person image: %w", err)
	}
	garment, err := pngBytes(req.Garment)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode garment image: %w", err)
	}

	content := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			genai.NewPartFromText(geminiInstruction(req)),
			genai.NewPartFromBytes(person, "image/png"),
			genai.NewPartFromBytes(garment, "image/png"),
		},
	}
	seed := int32(req.Params.Seed)
	result, err := client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		CandidateCount:     1,
		Seed:               &seed,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	return firstInlineImage(result)
}

// firstInlineImage decodes the first inline image part of the response.
func firstInlineImage(result *genai.GenerateContentResponse) (image.Image, error) {
	if result == nil {
		return nil, ErrNoImage
	}
	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if mt := part.InlineData.MIMEType; mt != "" && !strings.HasPrefix(mt, "image/") {
				continue
			}
			img, err := imaging.Decode(bytes.NewReader(part.InlineData.Data))
			if err != nil {
				return nil, fmt.Errorf("gemini: decode image part: %w", err)
			}
			return img, nil
		}
	}
	return nil, ErrNoImage
}

func geminiInstruction(req Request) string {
	var b strings.Builder
	b.WriteString("Render the person from the first image wearing the garment from the second image. ")
	b.WriteString("Keep the pose, body shape, face and background of the person unchanged. ")
	b.WriteString("Style: ")
	b.WriteString(req.Prompt)
	if req.NegativePrompt != "" {
		b.WriteString(". Avoid: ")
		b.WriteString(req.NegativePrompt)
	}
	b.WriteString(". Return only the edited image.")
	return b.String()
}

func pngBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
