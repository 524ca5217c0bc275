package pkg

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/go-huggingface"
)

type HuggingFaceCompleter struct {
	client *huggingface.InferenceClient
	model  string
}

func NewHuggingFaceCompleter(apiKey string, model string) (*HuggingFaceCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("HUGGINGFACE_API_KEY is required for huggingface completions")
	}
	return &HuggingFaceCompleter{
		client: huggingface.NewInferenceClient(apiKey),
		model:  model,
	}, nil
}

func (slf *HuggingFaceCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	req := &huggingface.TextGenerationRequest{
		Inputs: prompt,
		Model:  slf.model,
		Parameters: huggingface.TextGenerationParameters{
			MaxNewTokens:   ptr(500),
			Temperature:    ptr(0.1),
			TopK:           ptr(10),
			TopP:           ptr(0.9),
			ReturnFullText: ptr(false),
		},
	}

	res, err := slf.client.TextGeneration(ctx, req)
	if err != nil {
		return "", fmt.Errorf("huggingface text generation failed: %w", err)
	}
	if len(res) == 0 {
		return "", errors.New("no response from huggingface")
	}
	return res[0].GeneratedText, nil
}

func ptr[T any](v T) *T {
	return &v
}
