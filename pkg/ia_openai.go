package pkg

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(apiKey string, baseURL string, model string) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for openai completions")
	}
	if model == "" {
		model = openai.GPT4
	}
	return &OpenAICompleter{
		client: newOpenAIClient(apiKey, baseURL),
		model:  model,
	}, nil
}

func (slf *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := slf.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: slf.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
