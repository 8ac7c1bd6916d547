package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient completes prompts through the Gemini API. Search grounding
// is enabled when the caller needs the model to look at public profiles.
type GeminiClient struct {
	client     *genai.Client
	model      string
	withSearch bool
	logger     *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, model string, withSearch bool, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %v", err)
	}
	return &GeminiClient{
		client:     client,
		model:      model,
		withSearch: withSearch,
		logger:     logger,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}
	if c.withSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	text, err := callWithRetry(ctx, c.logger, func(callCtx context.Context) (string, error) {
		resp, err := c.client.Models.GenerateContent(callCtx, c.model, genai.Text(prompt), config)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(resp.Text()), nil
	})
	if err != nil {
		c.logger.Error("Failed to get Gemini completion", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return text, nil
}
