// Package tryon runs one virtual try-on request from payload to envelope.
package tryon

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/rs/zerolog"

	"tryon/internal/domain"
	"tryon/internal/imagecodec"
	"tryon/internal/imageproc"
	"tryon/internal/infra"
	"tryon/internal/synthesis"
)

// State is a step of the request lifecycle.
type State string

const (
	StateReceived    State = "received"
	StateValidated   State = "validated"
	StateDecoded     State = "decoded"
	StateNormalized  State = "normalized"
	StateSynthesized State = "synthesized"
	StateEncoded     State = "encoded"
	StateResponded   State = "responded"
	StateFailed      State = "failed"
)

// OutputFormat selects how the result image is serialized.
type OutputFormat int

const (
	// OutputBase64 is bare base64 PNG, used by the job queue.
	OutputBase64 OutputFormat = iota
	// OutputDataURL prefixes the PNG with data:image/png;base64, for browsers.
	OutputDataURL
)

const synthesisFailedPrefix = "Virtual try-on processing failed"

// Handler converts payloads into envelopes. It is safe for concurrent use;
// all per-request images live on the stack of Process.
type Handler struct {
	provider       synthesis.Provider
	output         OutputFormat
	bounds         *imageproc.Bounds
	enhance        bool
	params         synthesis.Params
	negativePrompt string
	missingMessage func([]string) string
	logger         infra.Logger
	now            func() time.Time
}

type Option func(*Handler)

func WithOutput(f OutputFormat) Option { return func(h *Handler) { h.output = f } }

// WithBounds enables dimension validation of decoded inputs.
func WithBounds(b imageproc.Bounds) Option {
	return func(h *Handler) { h.bounds = &b }
}

// WithEnhancement applies the person and clothing enhancement filters after
// normalization.
func WithEnhancement(on bool) Option { return func(h *Handler) { h.enhance = on } }

func WithParams(p synthesis.Params) Option { return func(h *Handler) { h.params = p } }

// WithMissingMessage overrides the message used when image fields are absent.
func WithMissingMessage(fn func([]string) string) Option {
	return func(h *Handler) {
		if fn != nil {
			h.missingMessage = fn
		}
	}
}

func WithLogger(l infra.Logger) Option { return func(h *Handler) { h.logger = l } }

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHandler(provider synthesis.Provider, opts ...Option) *Handler {
	h := &Handler{
		provider:       provider,
		output:         OutputBase64,
		params:         synthesis.DefaultParams(),
		negativePrompt: synthesis.DefaultNegativePrompt,
		missingMessage: MissingInputsMessage,
		logger:         zerolog.Nop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Provider exposes the synthesis backend for health reporting.
func (h *Handler) Provider() synthesis.Provider { return h.provider }

// Process runs the request to completion and always returns an envelope.
func (h *Handler) Process(ctx context.Context, p Payload) Envelope {
	started := h.now()
	state := StateReceived

	fail := func(err error) Envelope {
		env := FailureEnvelope(err, h.now().Sub(started))
		h.logger.Error().
			Err(err).
			Str("state", string(state)).
			Str("kind", string(env.Kind)).
			Float64("processing_time", env.ProcessingTime).
			Msg("tryon: request failed")
		return env
	}

	if missing := p.MissingFields(); len(missing) > 0 {
		return fail(domain.ValidationError(h.missingMessage(missing)))
	}
	state = StateValidated

	person, err := h.decode(p.PersonImage)
	if err != nil {
		return fail(err)
	}
	garment, err := h.decode(p.ClothingImage)
	if err != nil {
		return fail(err)
	}
	state = StateDecoded

	normPerson := imageproc.NormalizePerson(person)
	normGarment := imageproc.NormalizeClothing(garment)
	if h.enhance {
		normPerson = imageproc.EnhancePerson(normPerson)
		normGarment = imageproc.EnhanceClothing(normGarment)
	}
	state = StateNormalized
	h.logger.Debug().Str("state", string(state)).Msg("tryon: inputs normalized")

	result, err := h.synthesize(ctx, normPerson, normGarment, p.NormalizedPrompt(synthesis.DefaultPrompt))
	if err != nil {
		return fail(err)
	}
	state = StateSynthesized

	encoded, err := h.encode(result)
	if err != nil {
		return fail(err)
	}
	state = StateEncoded

	env := successEnvelope(encoded, h.now().Sub(started))
	state = StateResponded
	h.logger.Info().
		Str("state", string(state)).
		Str("provider", h.provider.Name()).
		Float64("processing_time", env.ProcessingTime).
		Msg("tryon: request completed")
	return env
}

// decode checks the declared size against the bounds before any pixel data
// is decoded.
func (h *Handler) decode(s string) (*image.NRGBA, error) {
	src, err := imagecodec.Open(s)
	if err != nil {
		return nil, err
	}
	if h.bounds != nil {
		if err := imageproc.ValidateSize(imageproc.Size{Width: src.Width, Height: src.Height}, *h.bounds); err != nil {
			return nil, err
		}
	}
	img, err := src.Decode()
	if err != nil {
		return nil, err
	}
	if h.bounds != nil {
		if err := imageproc.Validate(img, *h.bounds); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func (h *Handler) synthesize(ctx context.Context, person, garment image.Image, prompt string) (image.Image, error) {
	if h.provider == nil || !h.provider.Ready() {
		return nil, domain.SynthesisError(synthesisFailedPrefix, synthesis.ErrNotReady)
	}
	out, err := h.provider.Synthesize(ctx, synthesis.Request{
		Person:         person,
		Garment:        garment,
		Prompt:         prompt,
		NegativePrompt: h.negativePrompt,
		Params:         h.params,
	})
	if err == nil && out == nil {
		err = synthesis.ErrNoImage
	}
	if err != nil {
		return nil, domain.SynthesisError(synthesisFailedPrefix, err)
	}
	return out, nil
}

func (h *Handler) encode(img image.Image) (string, error) {
	var (
		s   string
		err error
	)
	switch h.output {
	case OutputDataURL:
		s, err = imagecodec.EncodeDataURL(img)
	default:
		s, err = imagecodec.Encode(img)
	}
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return "", err
		}
		return "", domain.EncodeError("Failed to encode result image", err)
	}
	return s, nil
}
