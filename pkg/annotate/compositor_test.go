package annotate

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/campusnav/location-api/pkg/types"
)

// createTestPhoto creates a simple gradient test image
func createTestPhoto(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}
	return img
}

func TestAnnotate(t *testing.T) {
	c := NewCompositor(90, 28)
	photo := createTestPhoto(640, 480)
	box := types.BoundingBox{X1: 100, Y1: 150, X2: 500, Y2: 400}

	data, err := c.Annotate(photo, "Founders Building", box)
	if err != nil {
		t.Fatalf("Annotate() failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Annotate() returned empty data")
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid JPEG: %v", err)
	}
	if decoded.Bounds() != photo.Bounds() {
		t.Errorf("output bounds %v, want %v", decoded.Bounds(), photo.Bounds())
	}
}

func TestAnnotateEmptyLabel(t *testing.T) {
	c := NewCompositor(90, 28)
	photo := createTestPhoto(320, 240)
	box := types.BoundingBox{X1: 40, Y1: 60, X2: 280, Y2: 200}

	// Missing model answer must still produce an encoded image
	data, err := c.Annotate(photo, "", box)
	if err != nil {
		t.Fatalf("Annotate() with empty label failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Annotate() with empty label returned empty data")
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("output is not valid JPEG: %v", err)
	}
}

func TestAnnotateCalloutNearTop(t *testing.T) {
	c := NewCompositor(90, 28)
	photo := createTestPhoto(320, 240)

	// Box at the very top: the callout flips below the bottom edge
	box := types.BoundingBox{X1: 10, Y1: 0, X2: 300, Y2: 80}
	data, err := c.Annotate(photo, "North Hall", box)
	if err != nil {
		t.Fatalf("Annotate() with top box failed: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid JPEG: %v", err)
	}

	// The fill below the box bottom should carry the callout color
	r, _, _, _ := decoded.At(30, 90).RGBA()
	if r>>8 < 150 {
		t.Errorf("expected callout fill below the box, got red channel %d", r>>8)
	}
}

func TestAnnotateTinyImage(t *testing.T) {
	c := NewCompositor(90, 28)
	photo := createTestPhoto(10, 10)
	box := types.BoundingBox{X1: 1, Y1: 1, X2: 9, Y2: 9}

	// Callout larger than the canvas clips instead of failing
	data, err := c.Annotate(photo, "Founders Building", box)
	if err != nil {
		t.Fatalf("Annotate() on tiny image failed: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("output is not valid JPEG: %v", err)
	}
}
