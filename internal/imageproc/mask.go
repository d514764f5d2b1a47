package imageproc

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultMaskThreshold treats near-white pixels as garment background.
const DefaultMaskThreshold = 240

// ClothingMask separates a garment from a light background. Pixels whose
// luma is above threshold become 0, everything else 255. The raw mask is
// cleaned with a 3x3 close followed by a 3x3 open.
func ClothingMask(img image.Image, threshold uint8) *image.Gray {
	src := imaging.Clone(img)
	b := src.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4 : x*4+3]
			luma := (299*int(p[0]) + 587*int(p[1]) + 114*int(p[2]) + 500) / 1000
			if luma <= int(threshold) {
				mask.Pix[y*mask.Stride+x] = 0xff
			}
		}
	}
	mask = erode(dilate(mask))
	return dilate(erode(mask))
}

// dilate and erode use a 3x3 square kernel; pixels outside the image are
// ignored.
func dilate(m *image.Gray) *image.Gray { return morph(m, true) }

func erode(m *image.Gray) *image.Gray { return morph(m, false) }

func morph(m *image.Gray, grow bool) *image.Gray {
	w, h := m.Bounds().Dx(), m.Bounds().Dy()
	out := image.NewGray(m.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := m.Pix[y*m.Stride+x]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := m.Pix[ny*m.Stride+nx]
					if grow && n > v || !grow && n < v {
						v = n
					}
				}
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}
