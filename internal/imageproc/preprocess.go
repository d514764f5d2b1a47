// Package imageproc holds the deterministic resize, validation and
// enhancement steps applied to images before and after synthesis.
package imageproc

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"tryon/internal/domain"
	"tryon/internal/imagecodec"
)

// Size is a width x height pair in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Bounds limits the accepted input dimensions, inclusive on both ends.
type Bounds struct {
	Min Size
	Max Size
}

var (
	PersonSize   = Size{Width: 512, Height: 768}
	ClothingSize = Size{Width: 512, Height: 512}

	DefaultBounds = Bounds{
		Min: Size{Width: 256, Height: 256},
		Max: Size{Width: 2048, Height: 2048},
	}
)

var white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// NormalizePerson stretches img to exactly 512x768.
func NormalizePerson(img image.Image) *image.NRGBA {
	return imaging.Resize(img, PersonSize.Width, PersonSize.Height, imaging.Lanczos)
}

// NormalizeClothing stretches img to exactly 512x512.
func NormalizeClothing(img image.Image) *image.NRGBA {
	return imaging.Resize(img, ClothingSize.Width, ClothingSize.Height, imaging.Lanczos)
}

// ResizePreservingAspect fits img inside target without cropping and
// centers it on a white canvas of exactly target.
func ResizePreservingAspect(img image.Image, target Size) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	canvas := imaging.New(target.Width, target.Height, white)
	if w == 0 || h == 0 || target.Width <= 0 || target.Height <= 0 {
		return canvas
	}

	aspect := float64(w) / float64(h)
	targetAspect := float64(target.Width) / float64(target.Height)

	var nw, nh int
	if aspect > targetAspect {
		nw = target.Width
		nh = int(float64(target.Width) / aspect)
	} else {
		nh = target.Height
		nw = int(float64(target.Height) * aspect)
	}
	nw = max(nw, 1)
	nh = max(nh, 1)

	resized := imaging.Resize(img, nw, nh, imaging.Lanczos)
	return imaging.Paste(canvas, resized, image.Pt((target.Width-nw)/2, (target.Height-nh)/2))
}

// Validate rejects images outside b or in a mode other than RGB/RGBA.
func Validate(img image.Image, b Bounds) error {
	size := img.Bounds().Size()
	if err := ValidateSize(Size{Width: size.X, Height: size.Y}, b); err != nil {
		return err
	}
	switch imagecodec.ModeOf(img) {
	case imagecodec.ModeRGB, imagecodec.ModeRGBA:
		return nil
	default:
		return domain.ValidationError("Image must be in RGB or RGBA format")
	}
}

// ValidateSize applies the dimension part of Validate. It needs only the
// image header.
func ValidateSize(size Size, b Bounds) error {
	if size.Width < b.Min.Width || size.Height < b.Min.Height {
		return domain.ValidationError(fmt.Sprintf("Image too small. Minimum size: %s", b.Min))
	}
	if size.Width > b.Max.Width || size.Height > b.Max.Height {
		return domain.ValidationError(fmt.Sprintf("Image too large. Maximum size: %s", b.Max))
	}
	return nil
}
