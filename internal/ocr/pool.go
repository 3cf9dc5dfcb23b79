package ocr

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// DefaultPoolSize bounds concurrent recognitions. Recognition is the slow
// stage of challenge handling; two in flight keeps a stuck sidecar from
// piling up goroutines while never stalling routing or pacing.
const DefaultPoolSize = 2

// Engine is anything that can turn an image file into text.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Pool wraps an Engine with a concurrency bound. Acquisition respects the
// caller's context, so shutdown abandons waiting recognitions immediately
// and in-flight ones the moment their context ends.
type Pool struct {
	engine Engine
	sem    *semaphore.Weighted
}

// NewPool builds a pool of the given size; size <= 0 selects the default.
func NewPool(engine Engine, size int64) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{engine: engine, sem: semaphore.NewWeighted(size)}
}

// Recognize runs one recognition inside the bound.
func (p *Pool) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("ocr: waiting for recognition slot: %w", err)
	}
	defer p.sem.Release(1)
	return p.engine.Recognize(ctx, imagePath)
}
