package synthesis

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/disintegration/imaging"
)

// Mock returns a fixed 1x1 image after an optional delay. It is used to
// exercise deployments without any image work.
type Mock struct {
	Delay time.Duration
}

func NewMock(delay time.Duration) *Mock { return &Mock{Delay: delay} }

func (m *Mock) Name() string   { return "mock" }
func (m *Mock) Device() string { return "cpu" }
func (m *Mock) Ready() bool    { return true }

func (m *Mock) Synthesize(ctx context.Context, _ Request) (image.Image, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return imaging.New(1, 1, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}), nil
}
