// Package locationapi provides georeferenced map marking and photo
// annotation for building identification.
//
// The package combines a linear lat/lon-to-pixel mapper over a geocoded
// map frame with renderers that mark a position and heading on the map
// and composite a labeled callout onto a photo.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//		"math/rand"
//
//		locationapi "github.com/campusnav/location-api"
//		"github.com/campusnav/location-api/pkg/geomap"
//	)
//
//	func main() {
//		frame := geomap.Frame{
//			Width: 1024, Height: 768,
//			TopLeft:     geomap.LatLon{Lat: 33.0, Lon: -96.76},
//			TopRight:    geomap.LatLon{Lat: 33.0, Lon: -96.74},
//			BottomLeft:  geomap.LatLon{Lat: 32.98, Lon: -96.76},
//			BottomRight: geomap.LatLon{Lat: 32.98, Lon: -96.74},
//		}
//
//		pipeline, err := locationapi.New(frame)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		marked := pipeline.MarkPosition(mapImage, 32.9892, -96.7502, 0)
//		annotated, err := pipeline.AnnotatePhoto(photo, "Founders Building", nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		_ = marked
//		_ = annotated
//	}
//
// The HTTP service in cmd/location-api wraps the same pipeline behind
// POST /identify/, adding the vision-model query and detector calls.
package locationapi

import (
	"image"
	"math/rand"
	"time"

	"github.com/disintegration/imaging"

	"github.com/campusnav/location-api/pkg/annotate"
	"github.com/campusnav/location-api/pkg/geomap"
	"github.com/campusnav/location-api/pkg/types"
)

// Version of the location-api library
const Version = "1.0.0"

// Pipeline ties the coordinate mapper, arrow renderer, box selector, and
// annotation compositor together for library use.
type Pipeline struct {
	frame      geomap.Frame
	selector   *annotate.Selector
	compositor *annotate.Compositor
}

// New creates a pipeline for the given frame with default annotation
// settings and a time-seeded fallback source. The frame is validated;
// degenerate corner spans are rejected.
func New(frame geomap.Frame) (*Pipeline, error) {
	return NewWithRand(frame, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates a pipeline with an explicit fallback random source,
// so the selector's fallback path is reproducible in tests.
func NewWithRand(frame geomap.Frame, rng *rand.Rand) (*Pipeline, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		frame:      frame,
		selector:   annotate.NewSelector(rng, annotate.DefaultMinConfidence),
		compositor: annotate.NewCompositor(annotate.DefaultJPEGQuality, annotate.DefaultFontSize),
	}, nil
}

// Frame returns the pipeline's interpolation frame.
func (p *Pipeline) Frame() geomap.Frame {
	return p.frame
}

// MarkPosition returns a copy of the map image with a directional arrow
// drawn at the given coordinate and bearing.
func (p *Pipeline) MarkPosition(mapImage image.Image, lat, lon, bearingDeg float64) *image.NRGBA {
	marked := imaging.Clone(mapImage)
	geomap.DrawArrow(marked, p.frame, lat, lon, bearingDeg, geomap.ArrowColor, geomap.DefaultArrowSize)
	return marked
}

// AnnotatePhoto selects a bounding box from the detections (or the
// randomized central fallback) and composites the label onto the photo,
// returning encoded JPEG bytes.
func (p *Pipeline) AnnotatePhoto(photo image.Image, label string, dets []types.Detection) ([]byte, error) {
	b := photo.Bounds()
	box := p.selector.Select(dets, b.Dx(), b.Dy())
	return p.compositor.Annotate(photo, label, box)
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
