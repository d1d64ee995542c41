package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleChat is a Chat backed by the Gemini API.
type GoogleChat struct {
	client *genai.Client
	model  string
}

// NewGoogleChat creates a Gemini-backed chat client. The context is used for
// client setup only; Complete takes its own context per call.
func NewGoogleChat(ctx context.Context, apiKey, model string) (*GoogleChat, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GoogleChat{
		client: client,
		model:  model,
	}, nil
}

// Name returns "google".
func (c *GoogleChat) Name() string {
	return "google"
}

// Complete performs one generation call. JSONMode sets the JSON response
// MIME type so Gemini returns a bare JSON object.
func (c *GoogleChat) Complete(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	model := c.client.GenerativeModel(c.model)
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return Response{}, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, errors.New("no candidates in Gemini response")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return Response{}, errors.New("no text content in Gemini response")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return Response{
		Text:   text,
		Tokens: tokens,
	}, nil
}

// Close releases the underlying client connection.
func (c *GoogleChat) Close() error {
	return c.client.Close()
}
