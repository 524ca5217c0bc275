package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

type EmbedderConfig struct {
	// Provider is one of "openai", "ollama" or "genai".
	Provider      string
	Model         string
	OpenAIKey     string
	OpenAIBaseURL string
	OllamaHost    string
	GenAIKey      string
	TaskType      string
}

func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Model)
	case "ollama":
		return NewOllamaEmbedder(cfg.OllamaHost, cfg.Model), nil
	case "genai":
		return NewGenAIEmbedder(ctx, cfg.GenAIKey, cfg.Model, cfg.TaskType)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'openai', 'ollama' or 'genai')", cfg.Provider)
	}
}

// ============ OpenAI ============

type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(apiKey string, baseURL string, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
	}
	if model == "" {
		model = string(openai.AdaEmbeddingV2)
	}
	return &OpenAIEmbedder{
		client: newOpenAIClient(apiKey, baseURL),
		model:  openai.EmbeddingModel(model),
	}, nil
}

func (slf *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := slf.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: slf.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings failed: %w", err)
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, item := range data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

func newOpenAIClient(apiKey string, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// ============ Ollama ============

type OllamaEmbedder struct {
	host   string
	model  string
	client *http.Client
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func NewOllamaEmbedder(host string, model string) *OllamaEmbedder {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{},
	}
}

// Embed uses the batched /api/embed endpoint, so one request covers every text.
func (slf *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	data, err := json.Marshal(ollamaEmbedRequest{Model: slf.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, slf.host+"/api/embed", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := slf.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Embeddings, nil
}

// ============ Google GenAI ============

type GenAIEmbedder struct {
	client   *genai.Client
	model    string
	taskType string
}

func NewGenAIEmbedder(ctx context.Context, apiKey string, model string, taskType string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is required for genai embeddings")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if taskType == "" {
		taskType = "SEMANTIC_SIMILARITY"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIEmbedder{client: client, model: model, taskType: taskType}, nil
}

func (slf *GenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := slf.client.Models.EmbedContent(ctx, slf.model, contents, &genai.EmbedContentConfig{
		TaskType: slf.taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, embedding := range result.Embeddings {
		vectors[i] = embedding.Values
	}
	return vectors, nil
}
