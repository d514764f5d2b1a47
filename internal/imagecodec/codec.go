// Package imagecodec converts between base64 text and in-memory RGB images.
//
// Decoding accepts bare base64 or a data URL (data:image/...;base64,...),
// and always yields an opaque *image.NRGBA so later stages never have to deal
// with palette, gray or alpha variants. Encoding always produces PNG.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"tryon/internal/domain"
)

// DataURLPrefix is prepended to encoded results served to web clients.
const DataURLPrefix = "data:image/png;base64,"

const dataURLMarker = "data:image"

// MaxPixels caps width*height of any decoded image. The header is checked
// before pixel data is allocated.
const MaxPixels = 24_000_000

var (
	errMissingPayload = errors.New("data URL has no payload")

	// ErrTooLarge reports an image whose declared dimensions exceed MaxPixels.
	ErrTooLarge = errors.New("image dimensions exceed limit")
)

// Source is base64 image text whose header has been read but whose pixels
// have not been decoded yet.
type Source struct {
	Width  int
	Height int
	Format string

	data []byte
}

// Open unwraps s and reads the image header. Images declaring more than
// MaxPixels are rejected here.
func Open(s string) (*Source, error) {
	raw, err := decodeBase64(s)
	if err != nil {
		return nil, invalid(err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, invalid(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, invalid(fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height))
	}
	return &Source{Width: cfg.Width, Height: cfg.Height, Format: format, data: raw}, nil
}

// Decode converts the source to three-channel RGB.
func (src *Source) Decode() (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(src.data))
	if err != nil {
		return nil, invalid(err)
	}
	return ToRGB(img), nil
}

// Decode parses a base64 (optionally data URL wrapped) image and converts it
// to three-channel RGB.
func Decode(s string) (*image.NRGBA, error) {
	src, err := Open(s)
	if err != nil {
		return nil, err
	}
	return src.Decode()
}

// Encode serializes img as PNG and returns the bare base64 text.
func Encode(img image.Image) (string, error) {
	if img == nil {
		return "", domain.EncodeError("Failed to encode result image", errors.New("nil image"))
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", domain.EncodeError("Failed to encode result image", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// EncodeDataURL is Encode with the data:image/png;base64, prefix.
func EncodeDataURL(img image.Image) (string, error) {
	s, err := Encode(img)
	if err != nil {
		return "", err
	}
	return DataURLPrefix + s, nil
}

// StripDataURL removes a data:image/...;base64, header, splitting on the
// first comma. Input without the header is returned unchanged.
func StripDataURL(s string) (string, error) {
	if !strings.HasPrefix(s, dataURLMarker) {
		return s, nil
	}
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return "", errMissingPayload
	}
	return s[idx+1:], nil
}

// ToRGB copies img into an opaque NRGBA buffer. Alpha is dropped rather than
// composited, so fully transparent pixels keep their stored color.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

func decodeBase64(s string) ([]byte, error) {
	payload, err := StripDataURL(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, errors.New("empty image data")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if !strings.Contains(payload, "=") {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(payload); rawErr == nil {
			return raw, nil
		}
	}
	return nil, err
}

func invalid(err error) error {
	return domain.DecodeError("Invalid base64 image", err)
}
