package synthesis

import (
	"context"
	"image"

	"golang.org/x/sync/semaphore"
)

// Limited bounds the number of concurrent Synthesize calls on a provider.
type Limited struct {
	Provider
	sem *semaphore.Weighted
}

// Limit wraps p so that at most n calls run at once. n below 1 means 1.
func Limit(p Provider, n int) *Limited {
	if n < 1 {
		n = 1
	}
	return &Limited{Provider: p, sem: semaphore.NewWeighted(int64(n))}
}

func (l *Limited) Synthesize(ctx context.Context, req Request) (image.Image, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.Provider.Synthesize(ctx, req)
}

// Close forwards to the wrapped provider when it holds resources.
func (l *Limited) Close() error {
	if c, ok := l.Provider.(Closer); ok {
		return c.Close()
	}
	return nil
}
