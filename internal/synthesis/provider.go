// Package synthesis defines the image synthesis provider consumed by the
// try-on handler, plus the concrete providers the service can run with.
package synthesis

import (
	"context"
	"errors"
	"image"
)

const (
	DefaultPrompt = "photorealistic, high quality, detailed clothing, perfect fit, natural lighting, professional photography"

	DefaultNegativePrompt = "blurry, low quality, distorted, deformed, ugly, bad anatomy, extra limbs, missing limbs, " +
		"floating limbs, disconnected limbs, malformed hands, poorly drawn hands, mutated hands, extra fingers, " +
		"fewer fingers, bad proportions, mutation, deformed, ugly, disgusting, amputation"
)

var (
	// ErrNotReady is returned when a provider is invoked before it loaded.
	ErrNotReady = errors.New("model not loaded")
	// ErrNoImage is returned when a provider produced no output image.
	ErrNoImage = errors.New("provider returned no image")
)

// Params are the fixed inference parameters passed with every request.
type Params struct {
	Steps         int
	GuidanceScale float64
	Strength      float64
	Seed          int64
}

// DefaultParams returns 20 steps, guidance 7.5, strength 0.8, seed 42.
func DefaultParams() Params {
	return Params{Steps: 20, GuidanceScale: 7.5, Strength: 0.8, Seed: 42}
}

// Request carries the normalized inputs for one synthesis call.
type Request struct {
	Person         image.Image
	Garment        image.Image
	Prompt         string
	NegativePrompt string
	Params         Params
}

// Provider is the contract implemented by every synthesis backend.
// Implementations are not assumed to be reentrant; wrap them with Limit.
type Provider interface {
	Name() string
	Device() string
	Ready() bool
	Synthesize(ctx context.Context, req Request) (image.Image, error)
}

// Loader is implemented by providers that need a startup step.
type Loader interface {
	Load(ctx context.Context) error
}

// Closer is implemented by providers holding external clients.
type Closer interface {
	Close() error
}
