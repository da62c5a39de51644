package processing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
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

func pngBase64(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeBase64Image(t *testing.T) {
	p := NewProcessor()
	b64 := pngBase64(t, createTestImage(20, 10))

	img, err := p.DecodeBase64Image(b64)
	if err != nil {
		t.Fatalf("DecodeBase64Image() failed: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("decoded size %v, want 20x10", img.Bounds())
	}
}

func TestDecodeBase64ImageInvalid(t *testing.T) {
	p := NewProcessor()

	if _, err := p.DecodeBase64Image("not-base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := p.DecodeBase64Image(base64.StdEncoding.EncodeToString([]byte("not an image"))); err == nil {
		t.Error("expected error for non-image payload")
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(200, 100)

	b64, err := p.PrepareImageForModel(img, "jpg", 80, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel() failed: %v", err)
	}

	decoded, err := p.DecodeBase64Image(b64)
	if err != nil {
		t.Fatalf("prepared payload is not decodable: %v", err)
	}
	if decoded.Bounds().Dx() != 80 {
		t.Errorf("long side should be resized to 80, got %d", decoded.Bounds().Dx())
	}
	if decoded.Bounds().Dy() != 40 {
		t.Errorf("aspect ratio should be preserved, got height %d", decoded.Bounds().Dy())
	}
}

func TestPrepareImageForModelNoResize(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(30, 30)

	b64, err := p.PrepareImageForModel(img, "png", 100, 85)
	if err != nil {
		t.Fatalf("PrepareImageForModel() failed: %v", err)
	}
	decoded, err := p.DecodeBase64Image(b64)
	if err != nil {
		t.Fatalf("prepared payload is not decodable: %v", err)
	}
	if decoded.Bounds().Dx() != 30 || decoded.Bounds().Dy() != 30 {
		t.Errorf("image below maxDim should keep its size, got %v", decoded.Bounds())
	}
}
