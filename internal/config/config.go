package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/campusnav/location-api/pkg/geomap"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Map      MapConfig      `json:"map"`
	Model    ModelConfig    `json:"model"`
	Detector DetectorConfig `json:"detector"`
	Annotate AnnotateConfig `json:"annotate"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr     string `json:"addr"`
	LogLevel string `json:"log_level"`
}

// MapConfig describes the reference map image and its geocoded corners.
type MapConfig struct {
	ImagePath   string        `json:"image_path"`
	DebugPath   string        `json:"debug_path,omitempty"`
	ArrowSize   float64       `json:"arrow_size"`
	TopLeft     geomap.LatLon `json:"top_left"`
	TopRight    geomap.LatLon `json:"top_right"`
	BottomLeft  geomap.LatLon `json:"bottom_left"`
	BottomRight geomap.LatLon `json:"bottom_right"`
}

// ModelConfig selects and tunes the vision model backend.
type ModelConfig struct {
	Backend        string `json:"backend"` // ollama or llamacpp
	Model          string `json:"model"`
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	SendFormat     string `json:"send_format"` // jpg or png
	SendMaxDim     int    `json:"send_max_dim"`
	SendQuality    int    `json:"send_quality"`
}

// DetectorConfig configures the bounding-box source. An empty
// InferenceURL selects the in-process saliency detector.
type DetectorConfig struct {
	InferenceURL   string  `json:"inference_url,omitempty"`
	MinConfidence  float64 `json:"min_confidence"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// AnnotateConfig tunes the output compositing.
type AnnotateConfig struct {
	JPEGQuality int     `json:"jpeg_quality"`
	FontSize    float64 `json:"font_size"`
}

// Default returns a configuration with default values. The map corners
// default to the reference campus map this service ships with.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:     ":8080",
			LogLevel: "info",
		},
		Map: MapConfig{
			ImagePath:   "map_png.png",
			ArrowSize:   20,
			TopLeft:     geomap.LatLon{Lat: 32.99563626626291, Lon: -96.75615546459603},
			TopRight:    geomap.LatLon{Lat: 32.99562635860259, Lon: -96.74429935194813},
			BottomLeft:  geomap.LatLon{Lat: 32.9828203491122, Lon: -96.75615546459603},
			BottomRight: geomap.LatLon{Lat: 32.9828203491122, Lon: -96.74429935194813},
		},
		Model: ModelConfig{
			Backend:        "ollama",
			Model:          "openbmb/minicpm-v4.5",
			URL:            "http://localhost:11434",
			TimeoutSeconds: 120,
			SendFormat:     "jpg",
			SendMaxDim:     1536,
			SendQuality:    85,
		},
		Detector: DetectorConfig{
			MinConfidence:  0.3,
			TimeoutSeconds: 30,
		},
		Annotate: AnnotateConfig{
			JPEGQuality: 90,
			FontSize:    28,
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides selected settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LOCATION_API_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOCATION_API_MAP_IMAGE"); v != "" {
		c.Map.ImagePath = v
	}
	if v := os.Getenv("MODEL_URL"); v != "" {
		c.Model.URL = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		c.Model.Model = v
	}
	if v := os.Getenv("DETECTOR_INFERENCE_URL"); v != "" {
		c.Detector.InferenceURL = v
	}
}

// Frame builds the interpolation frame for a loaded map image of the
// given pixel dimensions.
func (c *Config) Frame(width, height int) geomap.Frame {
	return geomap.Frame{
		Width:       width,
		Height:      height,
		TopLeft:     c.Map.TopLeft,
		TopRight:    c.Map.TopRight,
		BottomLeft:  c.Map.BottomLeft,
		BottomRight: c.Map.BottomRight,
	}
}

// Validate checks if the configuration is valid. Degenerate map corners
// are a fatal configuration error caught here, never per-request.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	if c.Map.ImagePath == "" {
		return fmt.Errorf("map.image_path cannot be empty")
	}
	if c.Map.ArrowSize <= 0 {
		return fmt.Errorf("map.arrow_size must be positive")
	}
	// The frame's pixel size comes from the image at startup; span
	// degeneracy is independent of it, so probe with a unit size.
	if err := c.Frame(1, 1).Validate(); err != nil {
		return err
	}

	switch c.Model.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("model.backend must be ollama or llamacpp")
	}
	if c.Model.TimeoutSeconds <= 0 {
		return fmt.Errorf("model.timeout_seconds must be positive")
	}
	if c.Model.SendQuality < 1 || c.Model.SendQuality > 100 {
		return fmt.Errorf("model.send_quality must be between 1 and 100")
	}

	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be between 0 and 1")
	}

	if c.Annotate.JPEGQuality < 1 || c.Annotate.JPEGQuality > 100 {
		return fmt.Errorf("annotate.jpeg_quality must be between 1 and 100")
	}
	if c.Annotate.FontSize <= 0 {
		return fmt.Errorf("annotate.font_size must be positive")
	}

	return nil
}
