// Package geomap maps geographic coordinates onto a fixed reference map
// image and renders directional markers on it.
//
// The mapping is a plain linear interpolation over the axis-aligned
// lat/lon bounding box of the frame's four corners. It is only locally
// valid for small-area maps and does not correct for projection
// distortion or rotated imagery.
package geomap

import (
	"errors"
	"fmt"
)

// ErrDegenerateFrame is returned when the corner coordinates collapse the
// latitude or longitude span to zero. This is a configuration error and
// must be caught at startup, never per-request.
var ErrDegenerateFrame = errors.New("geomap: degenerate frame: corner coordinates collapse a dimension")

// LatLon is a geographic coordinate.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Frame is a map image's pixel dimensions plus its four geocoded corners.
// Corners may form a non-rectangular quadrilateral in geo space; only
// their bounding box matters for interpolation, which makes the mapping
// robust to corner mislabeling but unable to represent rotated maps.
type Frame struct {
	Width       int
	Height      int
	TopLeft     LatLon
	TopRight    LatLon
	BottomLeft  LatLon
	BottomRight LatLon
}

func (f Frame) latBounds() (min, max float64) {
	min, max = f.TopLeft.Lat, f.TopLeft.Lat
	for _, c := range []LatLon{f.TopRight, f.BottomLeft, f.BottomRight} {
		if c.Lat < min {
			min = c.Lat
		}
		if c.Lat > max {
			max = c.Lat
		}
	}
	return min, max
}

func (f Frame) lonBounds() (min, max float64) {
	min, max = f.TopLeft.Lon, f.TopLeft.Lon
	for _, c := range []LatLon{f.TopRight, f.BottomLeft, f.BottomRight} {
		if c.Lon < min {
			min = c.Lon
		}
		if c.Lon > max {
			max = c.Lon
		}
	}
	return min, max
}

// Validate checks that the frame spans a usable interpolation domain.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("geomap: invalid frame size %dx%d", f.Width, f.Height)
	}
	if latMin, latMax := f.latBounds(); latMin == latMax {
		return fmt.Errorf("%w: latitude span is zero", ErrDegenerateFrame)
	}
	if lonMin, lonMax := f.lonBounds(); lonMin == lonMax {
		return fmt.Errorf("%w: longitude span is zero", ErrDegenerateFrame)
	}
	return nil
}

// PixelOf converts a geographic coordinate to a pixel position on the
// frame. Latitude is inverted: north is up, image y grows downward.
// Points outside the corner bounding box extrapolate without clamping,
// so the result may fall outside the image bounds.
func (f Frame) PixelOf(lat, lon float64) (x, y int) {
	latMin, latMax := f.latBounds()
	lonMin, lonMax := f.lonBounds()

	fx := (lon - lonMin) / (lonMax - lonMin) * float64(f.Width)
	fy := (latMax - lat) / (latMax - latMin) * float64(f.Height)

	return int(fx), int(fy)
}
