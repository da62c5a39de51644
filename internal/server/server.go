// Package server exposes the location identification HTTP API.
package server

import (
	"image"
	"math/rand"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/campusnav/location-api/internal/config"
	"github.com/campusnav/location-api/pkg/annotate"
	"github.com/campusnav/location-api/pkg/client"
	"github.com/campusnav/location-api/pkg/detector"
	"github.com/campusnav/location-api/pkg/geomap"
	"github.com/campusnav/location-api/pkg/identify"
	"github.com/campusnav/location-api/pkg/processing"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "location-api"

// Server wires the identification pipeline behind the HTTP surface.
type Server struct {
	app *fiber.App
	cfg *config.Config

	frame    geomap.Frame
	mapImage image.Image

	processor  *processing.Processor
	identifier *identify.Identifier
	detector   detector.Provider
	selector   *annotate.Selector
	compositor *annotate.Compositor
}

// New builds the server around a loaded reference map image, a vision
// backend, and a bounding-box provider. The config must already be
// validated; the frame takes its pixel size from the map image.
func New(cfg *config.Config, mapImage image.Image, vision client.VisionClient, det detector.Provider) *Server {
	b := mapImage.Bounds()

	s := &Server{
		cfg:        cfg,
		frame:      cfg.Frame(b.Dx(), b.Dy()),
		mapImage:   mapImage,
		processor:  processing.NewProcessor(),
		identifier: identify.NewIdentifier(vision),
		detector:   det,
		selector:   annotate.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano())), cfg.Detector.MinConfidence),
		compositor: annotate.NewCompositor(cfg.Annotate.JPEGQuality, cfg.Annotate.FontSize),
	}

	app := fiber.New(fiber.Config{
		AppName:               ServiceName,
		DisableStartupMessage: true,
		BodyLimit:             50 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	app.Post("/identify/", s.handleIdentify)
	app.Get("/health/", s.handleHealth)

	s.app = app
	return s
}

// App returns the underlying fiber app, used by tests via app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the configured address.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Server.Addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
