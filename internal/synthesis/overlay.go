package synthesis

import (
	"context"
	"image"

	"github.com/disintegration/imaging"

	"tryon/internal/imageproc"
)

// Overlay is a placeholder provider that cuts the garment out of its
// background, pastes it over the torso region of the subject with partial
// transparency and runs the result enhancement.
type Overlay struct {
	// Scale is the garment width relative to the subject width.
	Scale float64
	// Top is the vertical paste offset relative to the subject height.
	Top       float64
	Opacity   float64
	Threshold uint8
}

func NewOverlay() *Overlay {
	return &Overlay{Scale: 0.6, Top: 0.25, Opacity: 0.7, Threshold: imageproc.DefaultMaskThreshold}
}

func (o *Overlay) Name() string   { return "overlay" }
func (o *Overlay) Device() string { return "cpu" }
func (o *Overlay) Ready() bool    { return true }

func (o *Overlay) Synthesize(ctx context.Context, req Request) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Person == nil || req.Garment == nil {
		return nil, ErrNoImage
	}
	person := imaging.Clone(req.Person)
	pw, ph := person.Bounds().Dx(), person.Bounds().Dy()

	gw := max(int(float64(pw)*o.Scale), 1)
	garment := imaging.Resize(req.Garment, gw, 0, imaging.Lanczos)
	garment = cutout(garment, imageproc.ClothingMask(garment, o.Threshold))

	pos := image.Pt((pw-gw)/2, int(float64(ph)*o.Top))
	composite := imaging.Overlay(person, garment, pos, o.Opacity)
	return imageproc.EnhanceResult(composite), nil
}

// cutout applies mask as the alpha channel of img.
func cutout(img *image.NRGBA, mask *image.Gray) *image.NRGBA {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			img.Pix[y*img.Stride+x*4+3] = mask.Pix[y*mask.Stride+x]
		}
	}
	return img
}
