// Package annotate selects a detector bounding box for a photo and
// composites a labeled callout onto it.
package annotate

import (
	"math/rand"
	"sync"

	"github.com/campusnav/location-api/pkg/types"
)

// DefaultMinConfidence filters detector boxes below this score.
const DefaultMinConfidence = 0.3

// Selector picks the bounding box to annotate. The fallback source is an
// injected *rand.Rand so tests can seed it; the mutex makes the shared
// generator safe under concurrent requests, though the fallback sequence
// is still interleaved and non-deterministic across them.
type Selector struct {
	mu            sync.Mutex
	rng           *rand.Rand
	minConfidence float64
}

// NewSelector creates a selector with the given fallback random source.
func NewSelector(rng *rand.Rand, minConfidence float64) *Selector {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Selector{rng: rng, minConfidence: minConfidence}
}

// Select returns the largest-area detection above the confidence
// threshold, ties resolved by first-seen order. With no candidates it
// falls back to a randomized central box covering roughly 60-100% of each
// image dimension, re-rolled on every invocation.
func (s *Selector) Select(dets []types.Detection, width, height int) types.BoundingBox {
	var best *types.Detection
	for i := range dets {
		d := &dets[i]
		if d.Confidence < s.minConfidence {
			continue
		}
		if best == nil || d.Area() > best.Area() {
			best = d
		}
	}
	if best != nil {
		return best.Box()
	}
	return s.fallbackBox(width, height)
}

func (s *Selector) fallbackBox(width, height int) types.BoundingBox {
	s.mu.Lock()
	v1 := s.rng.Float64() * 0.2
	v2 := 0.8 + s.rng.Float64()*0.2
	s.mu.Unlock()

	return types.BoundingBox{
		X1: int(float64(width) * v1),
		Y1: int(float64(height) * v1),
		X2: int(float64(width) * v2),
		Y2: int(float64(height) * v2),
	}
}
