package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusnav/location-api/internal/config"
	"github.com/campusnav/location-api/pkg/types"
)

type stubVision struct {
	response string
	err      error
}

func (s *stubVision) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubDetector struct {
	dets []types.Detection
	err  error
}

func (s *stubDetector) Detect(ctx context.Context, img image.Image) ([]types.Detection, error) {
	return s.dets, s.err
}

func testMapImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	return img
}

func testPhotoB64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 2), uint8(y * 3), 100, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test photo: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestServer(vision *stubVision, det *stubDetector) *Server {
	cfg := config.Default()
	cfg.Model.TimeoutSeconds = 5
	return New(cfg, testMapImage(), vision, det)
}

func postIdentify(t *testing.T, s *Server, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/identify/", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	return resp
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&stubVision{}, &stubDetector{})

	req := httptest.NewRequest(http.MethodGet, "/health/", nil)
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
	if body["service"] != ServiceName {
		t.Errorf("service = %q, want %q", body["service"], ServiceName)
	}
}

func TestHandleIdentifySuccess(t *testing.T) {
	vision := &stubVision{response: "The arrow faces /*** Founders Building ***/."}
	det := &stubDetector{dets: []types.Detection{
		{X1: 10, Y1: 10, X2: 90, Y2: 70, Confidence: 0.9},
	}}
	s := newTestServer(vision, det)

	body := fmt.Sprintf(`{"direction": 45, "gps": {"latitude": 32.9892, "longitude": -96.7502}, "image_base64": %q}`, testPhotoB64(t))
	resp := postIdentify(t, s, body)
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want 200, body: %s", resp.StatusCode, raw)
	}

	var out types.IdentifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !out.Success {
		t.Error("success = false, want true")
	}
	if out.LocationInfo == nil || *out.LocationInfo != "Founders Building" {
		t.Errorf("location_info = %v, want Founders Building", out.LocationInfo)
	}
	if out.Model == "" {
		t.Error("model should be echoed back")
	}

	labeled, err := base64.StdEncoding.DecodeString(out.LabeledImage)
	if err != nil {
		t.Fatalf("labeled_image is not valid base64: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(labeled))
	if err != nil {
		t.Fatalf("labeled_image is not a valid JPEG: %v", err)
	}
	if decoded.Bounds().Dx() != 100 || decoded.Bounds().Dy() != 80 {
		t.Errorf("labeled image size %v, want 100x80", decoded.Bounds())
	}
}

func TestHandleIdentifyStringDirection(t *testing.T) {
	vision := &stubVision{response: "/*** Library ***/"}
	s := newTestServer(vision, &stubDetector{})

	body := fmt.Sprintf(`{"direction": "270.5", "gps": {"latitude": 32.99, "longitude": -96.75}, "image_base64": %q}`, testPhotoB64(t))
	resp := postIdentify(t, s, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleIdentifyUnparseableAnswer(t *testing.T) {
	vision := &stubVision{response: "I cannot tell which building it is."}
	s := newTestServer(vision, &stubDetector{})

	body := fmt.Sprintf(`{"direction": 0, "gps": {"latitude": 32.99, "longitude": -96.75}, "image_base64": %q}`, testPhotoB64(t))
	resp := postIdentify(t, s, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// location_info must be present and null, not absent
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	v, present := out["location_info"]
	if !present {
		t.Fatal("location_info key missing from response")
	}
	if v != nil {
		t.Errorf("location_info = %v, want null", v)
	}
	if out["labeled_image"] == "" {
		t.Error("labeled_image should still be produced")
	}
}

func TestHandleIdentifyDetectorFailure(t *testing.T) {
	vision := &stubVision{response: "/*** Gym ***/"}
	det := &stubDetector{err: errors.New("inference service unreachable")}
	s := newTestServer(vision, det)

	// Detector failure falls back to the randomized central box
	body := fmt.Sprintf(`{"direction": 90, "gps": {"latitude": 32.99, "longitude": -96.75}, "image_base64": %q}`, testPhotoB64(t))
	resp := postIdentify(t, s, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleIdentifyBadRequests(t *testing.T) {
	s := newTestServer(&stubVision{response: "/*** X ***/"}, &stubDetector{})
	photo := testPhotoB64(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing direction", fmt.Sprintf(`{"gps": {"latitude": 32.99, "longitude": -96.75}, "image_base64": %q}`, photo)},
		{"missing gps", fmt.Sprintf(`{"direction": 0, "image_base64": %q}`, photo)},
		{"gps missing longitude", fmt.Sprintf(`{"direction": 0, "gps": {"latitude": 32.99}, "image_base64": %q}`, photo)},
		{"non-numeric direction", fmt.Sprintf(`{"direction": "north", "gps": {"latitude": 32.99, "longitude": -96.75}, "image_base64": %q}`, photo)},
		{"missing image", `{"direction": 0, "gps": {"latitude": 32.99, "longitude": -96.75}}`},
		{"invalid base64", `{"direction": 0, "gps": {"latitude": 32.99, "longitude": -96.75}, "image_base64": "!!!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postIdentify(t, s, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var out types.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if out.Success {
				t.Error("success should be false on errors")
			}
			if out.Error == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestHandleIdentifyModelError(t *testing.T) {
	vision := &stubVision{err: errors.New("connection refused")}
	s := newTestServer(vision, &stubDetector{})

	body := fmt.Sprintf(`{"direction": 0, "gps": {"latitude": 32.99, "longitude": -96.75}, "image_base64": %q}`, testPhotoB64(t))
	resp := postIdentify(t, s, body)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestHandleIdentifyModelTimeout(t *testing.T) {
	vision := &stubVision{err: fmt.Errorf("query: %w", context.DeadlineExceeded)}
	s := newTestServer(vision, &stubDetector{})

	body := fmt.Sprintf(`{"direction": 0, "gps": {"latitude": 32.99, "longitude": -96.75}, "image_base64": %q}`, testPhotoB64(t))
	resp := postIdentify(t, s, body)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	var out types.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if out.Error != "Model query timed out" {
		t.Errorf("error = %q, want timeout message", out.Error)
	}
}

func TestParseBearing(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{"number", float64(123.5), 123.5, false},
		{"numeric string", "45", 45, false},
		{"padded string", " 270.5 ", 270.5, false},
		{"text", "north", 0, true},
		{"wrong type", []any{1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBearing(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBearing(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseBearing(%v) = %f, want %f", tt.in, got, tt.want)
			}
		})
	}
}
