package imageproc

import (
	"image"

	"github.com/disintegration/imaging"
)

// EnhancePerson lightly denoises the subject photo, then raises contrast
// and sharpness.
func EnhancePerson(img image.Image) *image.NRGBA {
	out := imaging.Blur(img, 0.6)
	out = imaging.AdjustContrast(out, 20)
	return imaging.Sharpen(out, 0.5)
}

// EnhanceClothing boosts contrast and saturation of a garment image.
func EnhanceClothing(img image.Image) *image.NRGBA {
	out := imaging.AdjustContrast(img, 30)
	return imaging.AdjustSaturation(out, 20)
}

// EnhanceResult is the post-synthesis touch up.
func EnhanceResult(img image.Image) *image.NRGBA {
	out := imaging.AdjustContrast(img, 10)
	out = imaging.AdjustSaturation(out, 5)
	return imaging.Sharpen(out, 0.3)
}
