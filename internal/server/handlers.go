package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/campusnav/location-api/internal/log"
	"github.com/campusnav/location-api/pkg/geomap"
	"github.com/campusnav/location-api/pkg/types"
)

// handleHealth implements GET /health/.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// handleIdentify implements POST /identify/: mark the reference map with
// the caller's position and heading, ask the vision model which building
// the arrow faces, and return the photo annotated with the answer.
func (s *Server) handleIdentify(c *fiber.Ctx) error {
	logger := log.With("request_id", uuid.NewString())

	var req types.IdentifyRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid JSON format")
	}
	if req.Direction == nil || req.GPS == nil {
		return respondError(c, fiber.StatusBadRequest, "Missing required fields: direction and gps")
	}
	if req.GPS.Latitude == nil || req.GPS.Longitude == nil {
		return respondError(c, fiber.StatusBadRequest, "GPS must contain latitude and longitude")
	}

	bearing, err := parseBearing(req.Direction)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid direction: %v", err))
	}

	if req.ImageB64 == "" {
		return respondError(c, fiber.StatusBadRequest, "Missing required field: image_base64")
	}
	photo, err := s.processor.DecodeBase64Image(req.ImageB64)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid image_base64: %v", err))
	}

	lat, lon := *req.GPS.Latitude, *req.GPS.Longitude

	// Mark the reference map with the caller's position and heading.
	marked := imaging.Clone(s.mapImage)
	geomap.DrawArrow(marked, s.frame, lat, lon, bearing, geomap.ArrowColor, s.cfg.Map.ArrowSize)
	if s.cfg.Map.DebugPath != "" {
		if err := s.processor.SaveImage(marked, s.cfg.Map.DebugPath, "png", 0, false); err != nil {
			logger.Warn("debug map save failed", "error", err)
		}
	}

	mapB64, err := s.processor.PrepareImageForModel(marked, s.cfg.Model.SendFormat, s.cfg.Model.SendMaxDim, s.cfg.Model.SendQuality)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to prepare map image: %v", err))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), time.Duration(s.cfg.Model.TimeoutSeconds)*time.Second)
	defer cancel()

	name, parsed, raw, err := s.identifier.IdentifyBuilding(ctx, s.cfg.Model.Model, mapB64)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error("model query timed out")
			return respondError(c, fiber.StatusInternalServerError, "Model query timed out")
		}
		logger.Error("model query failed", "error", err)
		return respondError(c, fiber.StatusInternalServerError, err.Error())
	}
	if !parsed {
		logger.Warn("model answer missing marker delimiters", "response_len", len(raw))
	} else {
		logger.Info("building identified", "name", name)
	}

	// Detector failure is non-fatal: the selector still produces a
	// fallback box, so the endpoint always returns an annotated image.
	pb := photo.Bounds()
	dets, err := s.detector.Detect(ctx, photo)
	if err != nil {
		logger.Warn("detection failed, using fallback box", "error", err)
		dets = nil
	}
	box := s.selector.Select(dets, pb.Dx(), pb.Dy())

	annotated, err := s.compositor.Annotate(photo, name, box)
	if err != nil {
		logger.Error("annotation failed", "error", err)
		return respondError(c, fiber.StatusInternalServerError, err.Error())
	}

	var locationInfo *string
	if parsed {
		locationInfo = &name
	}

	return c.JSON(types.IdentifyResponse{
		Success:      true,
		Direction:    req.Direction,
		GPS:          req.GPS,
		LocationInfo: locationInfo,
		LabeledImage: base64.StdEncoding.EncodeToString(annotated),
		Model:        s.cfg.Model.Model,
	})
}

// parseBearing accepts a bearing as a JSON number or numeric string.
// Non-numeric text is a defined failure, reported as a 400.
func parseBearing(v any) (float64, error) {
	switch b := v.(type) {
	case float64:
		return b, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a numeric bearing", b)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("direction must be a number or numeric string")
	}
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(types.ErrorResponse{
		Success: false,
		Error:   message,
	})
}
