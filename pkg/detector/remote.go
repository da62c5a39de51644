package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/campusnav/location-api/pkg/types"
)

// DefaultRemoteTimeout bounds a single inference round trip.
const DefaultRemoteTimeout = 30 * time.Second

// Remote calls an external object-detection service over HTTP. The image
// is posted as a multipart upload; the service answers with a JSON list
// of scored boxes.
type Remote struct {
	inferenceURL string
	httpClient   *http.Client
}

// NewRemote creates a remote detector client for the given inference URL.
func NewRemote(inferenceURL string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &Remote{
		inferenceURL: inferenceURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Detect posts the image to the inference service and decodes the
// detections from its response.
func (r *Remote) Detect(ctx context.Context, img image.Image) ([]types.Detection, error) {
	var imgBuf bytes.Buffer
	if err := jpeg.Encode(&imgBuf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, &imgBuf); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", r.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Detections []types.Detection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return result.Detections, nil
}

// CheckHealth probes the inference service's health endpoint.
func (r *Remote) CheckHealth() error {
	resp, err := r.httpClient.Get(r.inferenceURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("detection service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
