package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Completer sends one prompt to a generative model and returns its raw text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type CompleterConfig struct {
	// Provider is one of "openai", "ollama" or "huggingface".
	Provider          string
	Model             string
	OpenAIKey         string
	OpenAIBaseURL     string
	OllamaHost        string
	HuggingFaceAPIKey string
}

func NewCompleter(cfg CompleterConfig) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAICompleter(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Model)
	case "ollama":
		return NewOllamaCompleter(cfg.OllamaHost, cfg.Model), nil
	case "huggingface":
		return NewHuggingFaceCompleter(cfg.HuggingFaceAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s (use 'openai', 'ollama' or 'huggingface')", cfg.Provider)
	}
}

// ============ Ollama ============

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRawResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

type ollamaApiCall struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options"`
}

func (slf *ollamaApiCall) new(model string, prompt string) *ollamaApiCall {
	return &ollamaApiCall{
		Model:    model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   false,
		Options: map[string]any{
			"temperature": 0,
		},
	}
}

func (slf *ollamaApiCall) call(ctx context.Context, client *http.Client, host string) (string, error) {
	data, err := json.Marshal(slf)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		fmt.Sprintf("%s/api/chat", host),
		bytes.NewBuffer(data),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var raw ollamaRawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", err
	}
	if raw.Error != "" {
		return "", fmt.Errorf("ollama error: %s", raw.Error)
	}
	if !raw.Done {
		return "", fmt.Errorf("llama call not done")
	}

	return raw.Message.Content, nil
}

type OllamaCompleter struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaCompleter(host string, model string) *OllamaCompleter {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = "qwen3-coder:30b"
	}
	return &OllamaCompleter{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{},
	}
}

func (slf *OllamaCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return (&ollamaApiCall{}).new(slf.model, prompt).call(ctx, slf.client, slf.host)
}
