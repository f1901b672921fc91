// Package genai is the boundary to the generative AI service used for
// exercise analysis, coaching text, periodization and illustrations.
package genai

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the service answers without usable content.
var ErrEmptyResponse = errors.New("genai: empty response")

// Client is the capability the workspace depends on.
type Client interface {
	// GenerateText returns the model output for prompt. With a non-nil
	// schema the output is a JSON document shaped by it.
	GenerateText(ctx context.Context, prompt string, schema *Schema) (string, error)

	// GenerateImage returns the raw bytes of the first generated image.
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error)
}

// Type is a schema node type as understood by the service.
type Type string

const (
	TypeObject Type = "OBJECT"
	TypeString Type = "STRING"
	TypeArray  Type = "ARRAY"
)

// Schema declares the shape of a structured text response.
type Schema struct {
	Type       Type               `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

// ImageOptions configures an image generation request.
type ImageOptions struct {
	Count       int
	AspectRatio string
	MIMEType    string
}

// HTTPError is a non-2xx answer from the service.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("genai http %d: %s", e.StatusCode, e.Message)
}
