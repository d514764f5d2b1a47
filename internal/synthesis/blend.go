package synthesis

import (
	"context"
	"image"

	"github.com/disintegration/imaging"

	"tryon/internal/imageproc"
)

// DefaultBlendAlpha is the garment weight used by the blend placeholder.
const DefaultBlendAlpha = 0.3

// Blend is a placeholder provider that alpha blends the garment over the
// subject canvas. It never fails for valid inputs.
type Blend struct {
	Alpha float64
}

func NewBlend() *Blend { return &Blend{Alpha: DefaultBlendAlpha} }

func (b *Blend) Name() string   { return "blend" }
func (b *Blend) Device() string { return "cpu" }
func (b *Blend) Ready() bool    { return true }

func (b *Blend) Synthesize(ctx context.Context, req Request) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Person == nil || req.Garment == nil {
		return nil, ErrNoImage
	}
	canvas := req.Person.Bounds().Size()
	if canvas.X == 0 || canvas.Y == 0 {
		canvas = image.Pt(imageproc.PersonSize.Width, imageproc.PersonSize.Height)
	}
	person := imaging.Resize(req.Person, canvas.X, canvas.Y, imaging.Lanczos)
	garment := imaging.Resize(req.Garment, canvas.X, canvas.Y, imaging.Lanczos)
	return imaging.Overlay(person, garment, image.Pt(0, 0), b.Alpha), nil
}
