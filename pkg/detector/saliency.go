package detector

import (
	"context"
	"image"
	"math"

	"github.com/campusnav/location-api/pkg/types"
)

// SaliencyConfig tunes the local edge/contrast detector.
type SaliencyConfig struct {
	EdgeThreshold  float64
	ContrastWeight float64
	ColorWeight    float64
	MinRegionRatio float64
	MaxDetections  int
}

// Saliency is an in-process Provider used when no inference service is
// configured. It scores sliding-window regions by edge strength and
// contrast and emits the highest-scoring ones as detections, confidence
// normalized so the best region scores 1.0.
type Saliency struct {
	config SaliencyConfig
}

// NewSaliency creates a local saliency detector with default tuning.
func NewSaliency() *Saliency {
	return &Saliency{
		config: SaliencyConfig{
			EdgeThreshold:  0.01,
			ContrastWeight: 0.3,
			ColorWeight:    0.2,
			MinRegionRatio: 0.05,
			MaxDetections:  10,
		},
	}
}

// NewSaliencyWithConfig creates a local saliency detector with custom
// tuning.
func NewSaliencyWithConfig(config SaliencyConfig) *Saliency {
	return &Saliency{config: config}
}

// Detect analyzes the image and returns scored regions of interest.
func (s *Saliency) Detect(ctx context.Context, img image.Image) ([]types.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	saliencyMap := s.saliencyMap(img)
	regions := s.scanRegions(saliencyMap, width, height)
	regions = s.filterRegions(regions, width, height)

	if len(regions) > s.config.MaxDetections {
		regions = regions[:s.config.MaxDetections]
	}

	var maxScore float64
	for _, r := range regions {
		if r.score > maxScore {
			maxScore = r.score
		}
	}

	dets := make([]types.Detection, 0, len(regions))
	for _, r := range regions {
		conf := 1.0
		if maxScore > 0 {
			conf = r.score / maxScore
		}
		dets = append(dets, types.Detection{
			X1:         float64(r.x),
			Y1:         float64(r.y),
			X2:         float64(r.x + r.w),
			Y2:         float64(r.y + r.h),
			Confidence: conf,
		})
	}
	return dets, nil
}

type region struct {
	x, y, w, h int
	score      float64
}

// saliencyMap combines a Sobel-like edge measure with brightness into a
// per-pixel score.
func (s *Saliency) saliencyMap(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	out := make([][]float64, height)
	for i := range out {
		out[i] = make([]float64, width)
	}

	neighbors := [][]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			r1, g1, b1, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			var edgeStrength float64
			for _, offset := range neighbors {
				nx, ny := x+offset[0], y+offset[1]
				r2, g2, b2, _ := img.At(nx+bounds.Min.X, ny+bounds.Min.Y).RGBA()

				dr := float64(r1) - float64(r2)
				dg := float64(g1) - float64(g2)
				db := float64(b1) - float64(b2)
				edgeStrength += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			edgeStrength /= 8.0 * 65535.0

			brightness := (float64(r1) + float64(g1) + float64(b1)) / (3.0 * 65535.0)

			out[y][x] = s.config.ContrastWeight*edgeStrength + s.config.ColorWeight*brightness
		}
	}
	return out
}

// scanRegions slides windows of several sizes over the saliency map and
// keeps those above the edge threshold.
func (s *Saliency) scanRegions(saliencyMap [][]float64, width, height int) []region {
	var regions []region

	windowSizes := []int{width / 20, width / 16, width / 12, width / 8, width / 4}
	for _, windowSize := range windowSizes {
		if windowSize < 10 {
			continue
		}
		for y := 0; y <= height-windowSize; y += windowSize / 8 {
			for x := 0; x <= width-windowSize; x += windowSize / 8 {
				score := regionScore(saliencyMap, x, y, windowSize, windowSize)
				if score > s.config.EdgeThreshold {
					regions = append(regions, region{x: x, y: y, w: windowSize, h: windowSize, score: score})
				}
			}
		}
	}
	return regions
}

func regionScore(saliencyMap [][]float64, x, y, w, h int) float64 {
	var total float64
	count := 0
	for ry := y; ry < y+h && ry < len(saliencyMap); ry++ {
		for rx := x; rx < x+w && rx < len(saliencyMap[0]); rx++ {
			total += saliencyMap[ry][rx]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// filterRegions drops regions below the minimum area and sorts the rest
// by score, descending.
func (s *Saliency) filterRegions(regions []region, width, height int) []region {
	minArea := int(float64(width*height) * s.config.MinRegionRatio)

	var filtered []region
	for _, r := range regions {
		if r.w*r.h >= minArea {
			filtered = append(filtered, r)
		}
	}

	for i := 0; i < len(filtered)-1; i++ {
		for j := i + 1; j < len(filtered); j++ {
			if filtered[i].score < filtered[j].score {
				filtered[i], filtered[j] = filtered[j], filtered[i]
			}
		}
	}
	return filtered
}
