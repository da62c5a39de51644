package geomap

import (
	"image/color"
	"image/draw"
	"math"
)

// Arrow rendering defaults matching the request overlay.
var (
	// ArrowColor is the marker color drawn for identify requests.
	ArrowColor = color.NRGBA{R: 128, G: 0, B: 128, A: 255} // purple

	outlineColor = color.NRGBA{A: 255} // black
)

// DefaultArrowSize is the marker size used when none is configured.
const DefaultArrowSize = 20.0

const shaftWidth = 5

// DrawArrow draws a directional arrow at the given coordinate, oriented by
// a compass bearing (degrees clockwise from north). The image is mutated
// in place. Anchors outside the image bounds draw off-canvas silently.
func DrawArrow(img draw.Image, f Frame, lat, lon, bearingDeg float64, c color.NRGBA, size float64) {
	ax, ay := f.PixelOf(lat, lon)
	tip, left, right := arrowVertices(float64(ax), float64(ay), bearingDeg, size)

	fillTriangle(img, tip, left, right, c)
	strokeLine(img, tip, left, outlineColor, 1)
	strokeLine(img, left, right, outlineColor, 1)
	strokeLine(img, right, tip, outlineColor, 1)

	// Shaft runs backward from the anchor, opposite the heading.
	angle := (bearingDeg - 90) * math.Pi / 180
	end := point{
		x: float64(ax) - 2*size*math.Cos(angle),
		y: float64(ay) - 2*size*math.Sin(angle),
	}
	strokeLine(img, point{float64(ax), float64(ay)}, end, c, shaftWidth)
}

type point struct {
	x, y float64
}

// arrowVertices computes the arrowhead triangle. Bearing 0 is geographic
// north; subtracting 90 degrees rotates it into the image convention where
// angle 0 points right and y grows downward.
func arrowVertices(ax, ay, bearingDeg, size float64) (tip, left, right point) {
	angle := (bearingDeg - 90) * math.Pi / 180

	tip = point{
		x: ax + 0.3*size*math.Cos(angle),
		y: ay + 0.3*size*math.Sin(angle),
	}
	leftAngle := angle + 150*math.Pi/180
	left = point{
		x: ax + 0.5*size*math.Cos(leftAngle),
		y: ay + 0.5*size*math.Sin(leftAngle),
	}
	rightAngle := angle - 150*math.Pi/180
	right = point{
		x: ax + 0.5*size*math.Cos(rightAngle),
		y: ay + 0.5*size*math.Sin(rightAngle),
	}
	return tip, left, right
}

// fillTriangle rasterizes a filled triangle using an edge-sign test over
// the triangle's bounding box.
func fillTriangle(img draw.Image, a, b, c point, col color.NRGBA) {
	minX := int(math.Floor(math.Min(a.x, math.Min(b.x, c.x))))
	maxX := int(math.Ceil(math.Max(a.x, math.Max(b.x, c.x))))
	minY := int(math.Floor(math.Min(a.y, math.Min(b.y, c.y))))
	maxY := int(math.Ceil(math.Max(a.y, math.Max(b.y, c.y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x), float64(y)
			d1 := edgeSign(px, py, a, b)
			d2 := edgeSign(px, py, b, c)
			d3 := edgeSign(px, py, c, a)

			hasNeg := d1 < 0 || d2 < 0 || d3 < 0
			hasPos := d1 > 0 || d2 > 0 || d3 > 0
			if !(hasNeg && hasPos) {
				setPixel(img, x, y, col)
			}
		}
	}
}

func edgeSign(px, py float64, a, b point) float64 {
	return (px-b.x)*(a.y-b.y) - (a.x-b.x)*(py-b.y)
}

// strokeLine draws a line by stepping along its length and stamping a
// square of the given width at each step.
func strokeLine(img draw.Image, from, to point, col color.NRGBA, width int) {
	dx := to.x - from.x
	dy := to.y - from.y
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		steps = 1
	}
	half := width / 2
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		cx := int(from.x + t*dx)
		cy := int(from.y + t*dy)
		for oy := -half; oy <= half; oy++ {
			for ox := -half; ox <= half; ox++ {
				setPixel(img, cx+ox, cy+oy, col)
			}
		}
	}
}

func setPixel(img draw.Image, x, y int, col color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	img.Set(x, y, col)
}
