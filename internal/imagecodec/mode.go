package imagecodec

import "image"

// Mode names the channel layout of an image.
type Mode string

const (
	ModeRGB     Mode = "RGB"
	ModeRGBA    Mode = "RGBA"
	ModeGray    Mode = "L"
	ModePalette Mode = "P"
	ModeCMYK    Mode = "CMYK"
	ModeAlpha   Mode = "A"
)

// ModeOf reports the color mode of img. Images with an alpha channel are
// RGB when every pixel is opaque.
func ModeOf(img image.Image) Mode {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.Paletted:
		return ModePalette
	case *image.CMYK:
		return ModeCMYK
	case *image.Alpha, *image.Alpha16:
		return ModeAlpha
	case *image.YCbCr:
		return ModeRGB
	case interface{ Opaque() bool }:
		if m.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	default:
		return ModeRGBA
	}
}
