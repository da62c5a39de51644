// Package identify asks a multimodal vision model which building the
// rendered map arrow is facing and extracts the marker-delimited answer
// from its free-text response.
package identify

import (
	"context"
	"regexp"
	"strings"

	"github.com/campusnav/location-api/pkg/client"
)

// Prompt instructs the model to reason over the marked map and wrap its
// final answer in the /*** ... ***/ marker convention.
const Prompt = `Assume the arrow on this map is a person. What is the name of the building they are facing?
Only base your answer on this image.

Think it step by step: first describe the image, then find the arrow, then work out which building it points to, then give your answer, which is the building's name in this exact format: /*** BUILDING_NAME ***/`

// answerMarker matches the first marker-delimited answer. The delimiter is
// a convention in the prompt, not a contract with the model; a response
// without it is a first-class outcome, not an error.
var answerMarker = regexp.MustCompile(`(?s)/\*\*\*\s*(.*?)\s*\*\*\*/`)

// Identifier runs building identification queries against a vision model.
type Identifier struct {
	client client.VisionClient
}

// NewIdentifier creates an identifier backed by the given vision client.
func NewIdentifier(c client.VisionClient) *Identifier {
	return &Identifier{client: c}
}

// IdentifyBuilding sends the marked map to the model and parses the
// answer. ok is false when the response lacks the marker convention; raw
// always carries the full model response for logging.
func (i *Identifier) IdentifyBuilding(ctx context.Context, model, mapB64 string) (name string, ok bool, raw string, err error) {
	raw, err = i.client.SimpleQuery(ctx, model, Prompt, mapB64)
	if err != nil {
		return "", false, "", err
	}
	name, ok = ParseAnswer(raw)
	return name, ok, raw, nil
}

// ParseAnswer extracts the first marker-delimited building name from a
// model response. Missing or empty markers return ("", false).
func ParseAnswer(raw string) (string, bool) {
	m := answerMarker.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "", false
	}
	return name, true
}
