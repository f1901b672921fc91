package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	sdk "google.golang.org/genai"
)

// Config selects the endpoint and models of a Gemini client.
type Config struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

// Gemini implements Client with the Gemini API SDK: GenerateContent for
// text and Imagen's GenerateImages for illustrations.
type Gemini struct {
	cfg    Config
	client *sdk.Client
	log    *slog.Logger
}

// Compile-time check: *Gemini satisfies Client.
var _ Client = (*Gemini)(nil)

// NewGemini creates a client for the Gemini API backend. Requests are
// attempted once; callers bound them with their context.
func NewGemini(ctx context.Context, cfg Config, log *slog.Logger) (*Gemini, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	opts := sdk.HTTPOptions{Timeout: &cfg.Timeout}
	if cfg.BaseURL != "" {
		opts.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"
	}

	client, err := sdk.NewClient(ctx, &sdk.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     sdk.BackendGeminiAPI,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{
		cfg:    cfg,
		client: client,
		log:    log.With("component", "gemini"),
	}, nil
}

// toSDKSchema converts a response schema to the SDK representation.
func toSDKSchema(s *Schema) *sdk.Schema {
	if s == nil {
		return nil
	}
	out := &sdk.Schema{
		Type:     sdk.Type(s.Type),
		Items:    toSDKSchema(s.Items),
		Required: s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*sdk.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSDKSchema(prop)
		}
	}
	return out
}

// apiError maps SDK API errors to HTTPError.
func apiError(err error) error {
	var apiErr sdk.APIError
	if errors.As(err, &apiErr) {
		return &HTTPError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return err
}

// GenerateText calls generateContent on the text model.
func (g *Gemini) GenerateText(ctx context.Context, prompt string, schema *Schema) (string, error) {
	var config *sdk.GenerateContentConfig
	if schema != nil {
		config = &sdk.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   toSDKSchema(schema),
		}
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.TextModel, sdk.Text(prompt), config)
	g.log.Debug("genai call", "model", g.cfg.TextModel, "duration", time.Since(start).String(), "error", err)
	if err != nil {
		return "", fmt.Errorf("generating text: %w", apiError(err))
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked (%s): %w", resp.PromptFeedback.BlockReason, ErrEmptyResponse)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateImage calls generateImages on the image model and returns the
// first image.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("image prompt required")
	}
	count := opts.Count
	if count <= 0 {
		count = 1
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateImages(ctx, g.cfg.ImageModel, prompt, &sdk.GenerateImagesConfig{
		NumberOfImages: int32(count),
		AspectRatio:    opts.AspectRatio,
		OutputMIMEType: opts.MIMEType,
	})
	g.log.Debug("genai call", "model", g.cfg.ImageModel, "duration", time.Since(start).String(), "error", err)
	if err != nil {
		return nil, fmt.Errorf("generating image: %w", apiError(err))
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, ErrEmptyResponse
	}

	raw := resp.GeneratedImages[0].Image.ImageBytes
	g.log.Debug("image generated", "size", humanize.Bytes(uint64(len(raw))))
	return raw, nil
}
