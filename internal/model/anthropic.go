package model

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

// AnthropicChat is a Chat backed by the Anthropic messages API.
type AnthropicChat struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicChat creates an Anthropic-backed chat client.
func NewAnthropicChat(apiKey, model string) (*AnthropicChat, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AnthropicChat{
		client: &client,
		model:  model,
	}, nil
}

// Name returns "anthropic".
func (c *AnthropicChat) Name() string {
	return "anthropic"
}

// Complete performs one message call. Claude has no JSON response format
// toggle, so JSONMode relies on the prompt; callers should strip markdown
// fences before parsing.
func (c *AnthropicChat) Complete(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, err
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return Response{}, errors.New("no text content in Claude response")
	}

	return Response{
		Text:   text,
		Tokens: int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}, nil
}
