// Package detector provides bounding-box sources for photo annotation:
// a remote inference service client and a pure-Go saliency detector.
package detector

import (
	"context"
	"image"

	"github.com/campusnav/location-api/pkg/types"
)

// Provider produces scored bounding boxes for an image. An empty result
// is valid; the annotation selector handles the fallback.
type Provider interface {
	Detect(ctx context.Context, img image.Image) ([]types.Detection, error)
}
