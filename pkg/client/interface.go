package client

import "context"

// VisionClient queries a multimodal model with a prompt and one base64
// encoded image, returning the model's free-text answer.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
}
