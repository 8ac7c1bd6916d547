package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient completes prompts through the OpenAI chat API
type OpenAIClient struct {
	client       *openai.Client
	model        string
	maxTokens    int
	temperature  float32
	systemPrompt string
	logger       *zap.Logger
}

func NewOpenAIClient(apiKey, model string, maxTokens int, temperature float64, systemPrompt string, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		client:       openai.NewClient(apiKey),
		model:        model,
		maxTokens:    maxTokens,
		temperature:  float32(temperature),
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := callWithRetry(ctx, c.logger, func(callCtx context.Context) (string, error) {
		var messages []openai.ChatCompletionMessage
		if c.systemPrompt != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.systemPrompt,
			})
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		})

		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices in response")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		c.logger.Error("Failed to get OpenAI completion", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return text, nil
}
