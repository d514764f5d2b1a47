package synthesis

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Steps != 20 || p.GuidanceScale != 7.5 || p.Strength != 0.8 || p.Seed != 42 {
		t.Fatalf("default params = %+v", p)
	}
}

func TestBlendMixesGarmentIntoPerson(t *testing.T) {
	person := imaging.New(16, 24, color.NRGBA{R: 255, A: 255})
	garment := imaging.New(16, 16, color.NRGBA{B: 255, A: 255})

	out, err := NewBlend().Synthesize(context.Background(), Request{Person: person, Garment: garment})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out.Bounds().Dx() != 16 || out.Bounds().Dy() != 24 {
		t.Fatalf("size = %v, want 16x24", out.Bounds().Size())
	}
	c := color.NRGBAModel.Convert(out.At(8, 12)).(color.NRGBA)
	// 0.7 of the subject, 0.3 of the garment.
	if c.R < 170 || c.R > 186 || c.B < 69 || c.B > 85 {
		t.Fatalf("blended pixel = %+v, want ~(178,0,76)", c)
	}
}

func TestBlendRejectsMissingImages(t *testing.T) {
	_, err := NewBlend().Synthesize(context.Background(), Request{Person: imaging.New(2, 2, color.White)})
	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("error = %v, want ErrNoImage", err)
	}
}

func TestBlendHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBlend().Synthesize(ctx, Request{Person: imaging.New(2, 2, color.White), Garment: imaging.New(2, 2, color.White)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestOverlayKeepsBackgroundOutsideGarment(t *testing.T) {
	person := imaging.New(40, 60, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	garment := imaging.New(20, 20, color.White)
	garment = imaging.Paste(garment, imaging.New(10, 10, color.NRGBA{B: 255, A: 255}), image.Pt(5, 5))

	out, err := NewOverlay().Synthesize(context.Background(), Request{Person: person, Garment: garment})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 60 {
		t.Fatalf("size = %v, want 40x60", out.Bounds().Size())
	}
	corner := color.NRGBAModel.Convert(out.At(1, 1)).(color.NRGBA)
	if corner.B != corner.R {
		t.Fatalf("corner pixel tinted: %+v", corner)
	}
	// Garment is scaled to 24px wide at x=8, y=15, so its centre lands near (20,27).
	centre := color.NRGBAModel.Convert(out.At(20, 27)).(color.NRGBA)
	if centre.B <= centre.R {
		t.Fatalf("centre pixel = %+v, want garment tint", centre)
	}
}

func TestMockReturnsSinglePixel(t *testing.T) {
	out, err := NewMock(0).Synthesize(context.Background(), Request{})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out.Bounds().Dx() != 1 || out.Bounds().Dy() != 1 {
		t.Fatalf("size = %v, want 1x1", out.Bounds().Size())
	}
}

func TestMockDelayRespectsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := NewMock(time.Minute).Synthesize(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
}

type countingProvider struct {
	Mock
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (c *countingProvider) Synthesize(ctx context.Context, req Request) (image.Image, error) {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		seen := c.maxSeen.Load()
		if n <= seen || c.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return c.Mock.Synthesize(ctx, req)
}

func TestLimitSerializesCalls(t *testing.T) {
	inner := &countingProvider{}
	limited := Limit(inner, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := limited.Synthesize(context.Background(), Request{}); err != nil {
				t.Errorf("synthesize: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := inner.maxSeen.Load(); got != 1 {
		t.Fatalf("max concurrent calls = %d, want 1", got)
	}
	if limited.Name() != "mock" || !limited.Ready() {
		t.Fatalf("limited provider should forward metadata")
	}
}

func TestOpenSelectsProvider(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{name: "", want: "blend"},
		{name: "Blend", want: "blend"},
		{name: "overlay", want: "overlay"},
		{name: "mock", want: "mock"},
	}
	for _, tc := range cases {
		p, err := Open(context.Background(), Options{Name: tc.name})
		if err != nil {
			t.Fatalf("open %q: %v", tc.name, err)
		}
		if p.Name() != tc.want {
			t.Fatalf("open %q = %s, want %s", tc.name, p.Name(), tc.want)
		}
	}
}

func TestOpenFailures(t *testing.T) {
	if _, err := Open(context.Background(), Options{Name: "diffusers"}); err == nil {
		t.Fatalf("expected unknown provider error")
	}
	if _, err := Open(context.Background(), Options{Name: "remote"}); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("error = %v, want ErrMissingEndpoint", err)
	}
	if _, err := Open(context.Background(), Options{Name: "gemini"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestGeminiNotReadyBeforeLoad(t *testing.T) {
	g, err := NewGemini(GeminiOptions{APIKey: "key"})
	if err != nil {
		t.Fatalf("new gemini: %v", err)
	}
	if g.Ready() {
		t.Fatalf("gemini should not be ready before load")
	}
	if _, err := g.Synthesize(context.Background(), Request{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("error = %v, want ErrNotReady", err)
	}
}
