package imageproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"tryon/internal/domain"
	"tryon/internal/imagecodec"
)

var red = color.NRGBA{R: 0xff, A: 0xff}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func TestNormalizeIgnoresAspectRatio(t *testing.T) {
	inputs := []Size{{100, 100}, {1920, 1080}, {300, 2000}, {1, 1}}
	for _, in := range inputs {
		img := solid(in.Width, in.Height, red)

		person := NormalizePerson(img)
		if person.Bounds().Dx() != 512 || person.Bounds().Dy() != 768 {
			t.Fatalf("NormalizePerson(%s) = %v, want 512x768", in, person.Bounds())
		}
		clothing := NormalizeClothing(img)
		if clothing.Bounds().Dx() != 512 || clothing.Bounds().Dy() != 512 {
			t.Fatalf("NormalizeClothing(%s) = %v, want 512x512", in, clothing.Bounds())
		}
	}
}

func TestResizePreservingAspect(t *testing.T) {
	tests := []struct {
		name    string
		in      Size
		target  Size
		content image.Rectangle
	}{
		{
			name:    "wide into portrait",
			in:      Size{100, 50},
			target:  Size{512, 768},
			content: image.Rect(0, 256, 512, 512),
		},
		{
			name:    "tall into square",
			in:      Size{50, 200},
			target:  Size{512, 512},
			content: image.Rect(192, 0, 320, 512),
		},
		{
			name:    "same aspect",
			in:      Size{300, 300},
			target:  Size{512, 512},
			content: image.Rect(0, 0, 512, 512),
		},
		{
			name:    "odd padding floors",
			in:      Size{4, 1},
			target:  Size{100, 100},
			content: image.Rect(0, 37, 100, 62),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ResizePreservingAspect(solid(tt.in.Width, tt.in.Height, red), tt.target)
			if out.Bounds().Dx() != tt.target.Width || out.Bounds().Dy() != tt.target.Height {
				t.Fatalf("bounds = %v, want %s", out.Bounds(), tt.target)
			}

			center := image.Pt((tt.content.Min.X+tt.content.Max.X)/2, (tt.content.Min.Y+tt.content.Max.Y)/2)
			if px := out.NRGBAAt(center.X, center.Y); px != red {
				t.Fatalf("content center %v = %v, want red", center, px)
			}
			if tt.content.Min.Y > 0 {
				if px := out.NRGBAAt(center.X, tt.content.Min.Y-1); px != white {
					t.Fatalf("top padding = %v, want white", px)
				}
				if px := out.NRGBAAt(center.X, tt.content.Max.Y); px != white {
					t.Fatalf("bottom padding = %v, want white", px)
				}
				top := tt.content.Min.Y
				bottom := tt.target.Height - tt.content.Max.Y
				if d := top - bottom; d < -1 || d > 1 {
					t.Fatalf("vertical padding not symmetric: %d vs %d", top, bottom)
				}
			}
			if tt.content.Min.X > 0 {
				if px := out.NRGBAAt(tt.content.Min.X-1, center.Y); px != white {
					t.Fatalf("left padding = %v, want white", px)
				}
				if px := out.NRGBAAt(tt.content.Max.X, center.Y); px != white {
					t.Fatalf("right padding = %v, want white", px)
				}
			}
		})
	}
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name string
		size Size
		ok   bool
	}{
		{"min boundary", Size{256, 256}, true},
		{"max boundary", Size{2048, 2048}, true},
		{"inside", Size{512, 1024}, true},
		{"narrow", Size{255, 512}, false},
		{"short", Size{512, 255}, false},
		{"too wide", Size{2049, 512}, false},
		{"too tall", Size{512, 2049}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(solid(tt.size.Width, tt.size.Height, red), DefaultBounds)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("expected validation error")
				}
				if domain.KindOf(err) != domain.KindValidation {
					t.Fatalf("kind = %q, want validation", domain.KindOf(err))
				}
			}
		})
	}
}

func TestValidateRejectsNonRGBModes(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 300, 300))
	if err := Validate(gray, DefaultBounds); err == nil {
		t.Fatalf("expected gray image to be rejected")
	}

	translucent := image.NewNRGBA(image.Rect(0, 0, 300, 300))
	if imagecodec.ModeOf(translucent) != imagecodec.ModeRGBA {
		t.Fatalf("precondition: expected RGBA")
	}
	if err := Validate(translucent, DefaultBounds); err != nil {
		t.Fatalf("RGBA should be accepted: %v", err)
	}
}

func TestClothingMask(t *testing.T) {
	img := solid(20, 20, white)
	garment := imaging.New(10, 10, color.NRGBA{R: 20, G: 40, B: 160, A: 0xff})
	img = imaging.Paste(img, garment, image.Pt(5, 5))
	// isolated dark speck is removed by the opening step
	img.SetNRGBA(2, 17, color.NRGBA{A: 0xff})

	mask := ClothingMask(img, DefaultMaskThreshold)
	if mask.Bounds().Dx() != 20 || mask.Bounds().Dy() != 20 {
		t.Fatalf("mask bounds = %v", mask.Bounds())
	}
	if v := mask.GrayAt(10, 10).Y; v != 0xff {
		t.Fatalf("garment pixel = %d, want 255", v)
	}
	if v := mask.GrayAt(0, 19).Y; v != 0 {
		t.Fatalf("background pixel = %d, want 0", v)
	}
	if v := mask.GrayAt(2, 17).Y; v != 0 {
		t.Fatalf("speck should be opened away, got %d", v)
	}
}

func TestEnhanceKeepsDimensions(t *testing.T) {
	img := solid(64, 48, color.NRGBA{R: 120, G: 80, B: 40, A: 0xff})
	for name, out := range map[string]*image.NRGBA{
		"person":   EnhancePerson(img),
		"clothing": EnhanceClothing(img),
		"result":   EnhanceResult(img),
	} {
		if out.Bounds().Dx() != 64 || out.Bounds().Dy() != 48 {
			t.Fatalf("%s enhancement changed bounds to %v", name, out.Bounds())
		}
	}
}

func TestValidateSizeBoundaries(t *testing.T) {
	cases := []struct {
		size Size
		ok   bool
	}{
		{Size{Width: 256, Height: 256}, true},
		{Size{Width: 2048, Height: 2048}, true},
		{Size{Width: 255, Height: 300}, false},
		{Size{Width: 2049, Height: 300}, false},
		{Size{Width: 12000, Height: 12000}, false},
	}
	for _, tc := range cases {
		err := ValidateSize(tc.size, DefaultBounds)
		if (err == nil) != tc.ok {
			t.Fatalf("ValidateSize(%s) error = %v, want ok=%v", tc.size, err, tc.ok)
		}
	}
}
