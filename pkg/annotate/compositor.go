package annotate

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/campusnav/location-api/pkg/types"
)

// PlaceholderLabel is composited when the upstream model answer could not
// be parsed, so the endpoint always returns an annotated image.
const PlaceholderLabel = "Unknown building"

const (
	borderWidth = 4
	textPadding = 10

	// DefaultFontSize is the callout label size in points.
	DefaultFontSize = 28.0
	// DefaultJPEGQuality is the output encoding quality.
	DefaultJPEGQuality = 90
)

var (
	boxColor  = color.NRGBA{R: 220, G: 30, B: 30, A: 255}
	textColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Compositor draws the selected box and a labeled callout onto a photo
// and encodes the result as JPEG bytes suitable for base64 transport.
type Compositor struct {
	quality  int
	fontSize float64
}

// NewCompositor creates a compositor. Zero values select the defaults.
func NewCompositor(quality int, fontSize float64) *Compositor {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	return &Compositor{quality: quality, fontSize: fontSize}
}

// Annotate draws box and label onto a copy of img and returns the encoded
// image. An empty label is replaced by PlaceholderLabel rather than
// failing.
func (c *Compositor) Annotate(img image.Image, label string, box types.BoundingBox) ([]byte, error) {
	if label == "" {
		label = PlaceholderLabel
	}

	canvas := imaging.Clone(img)
	strokeRect(canvas, box.X1, box.Y1, box.X2, box.Y2, boxColor, borderWidth)
	c.drawCallout(canvas, label, box)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("annotate: encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCallout renders a filled label background anchored above the box's
// top edge, or below its bottom edge when the callout would cross the
// image top.
func (c *Compositor) drawCallout(img draw.Image, label string, box types.BoundingBox) {
	face := calloutFace(c.fontSize)
	textWidth := font.MeasureString(face, label).Ceil()
	metrics := face.Metrics()
	textHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	calloutW := textWidth + 2*textPadding
	calloutH := textHeight + 2*textPadding

	x1 := box.X1
	y1 := box.Y1 - calloutH
	if y1 < 0 {
		y1 = box.Y2
	}
	x2 := x1 + calloutW
	y2 := y1 + calloutH

	fill := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	draw.Draw(img, fill, &image.Uniform{C: boxColor}, image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x1+textPadding, y1+textPadding+ascent),
	}
	d.DrawString(label)
}

// strokeRect draws a rectangle outline of the given stroke width.
func strokeRect(img draw.Image, x1, y1, x2, y2 int, c color.NRGBA, width int) {
	if width <= 0 {
		width = 1
	}
	for i := 0; i < width; i++ {
		top := image.Rect(x1+i, y1+i, x2-i, y1+i+1)
		bottom := image.Rect(x1+i, y2-i-1, x2-i, y2-i)
		left := image.Rect(x1+i, y1+i, x1+i+1, y2-i)
		right := image.Rect(x2-i-1, y1+i, x2-i, y2-i)
		for _, r := range []image.Rectangle{top, bottom, left, right} {
			draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Over)
		}
	}
}

var (
	calloutFontOnce sync.Once
	calloutFontData *opentype.Font
	calloutFontErr  error

	calloutFaceMu    sync.Mutex
	calloutFaceCache = make(map[float64]font.Face)
)

// calloutFace returns a goregular face at the given size, falling back to
// the fixed basicfont when parsing fails.
func calloutFace(size float64) font.Face {
	calloutFontOnce.Do(func() {
		calloutFontData, calloutFontErr = opentype.Parse(goregular.TTF)
	})
	if calloutFontErr != nil || calloutFontData == nil {
		return basicfont.Face7x13
	}

	calloutFaceMu.Lock()
	defer calloutFaceMu.Unlock()
	if face, ok := calloutFaceCache[size]; ok {
		return face
	}
	face, err := opentype.NewFace(calloutFontData, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	calloutFaceCache[size] = face
	return face
}
