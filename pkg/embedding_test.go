package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps every text onto a fixed axis per keyword, so similarity is predictable.
func keywordEmbedder(keywords ...string) EmbedderFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vector := make([]float32, len(keywords))
			for k, keyword := range keywords {
				if strings.Contains(strings.ToLower(text), keyword) {
					vector[k] = 1
				}
			}
			vectors[i] = vector
		}
		return vectors, nil
	}
}

// ============ Cosine similarity ============

func TestCosineSimilarity(t *testing.T) {
	score, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	score, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-9)

	score, err = CosineSimilarity([]float32{1, 2}, []float32{-1, -2})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, score, 1e-9)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	score, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestCosineSimilarity_LengthMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}

// ============ Best match ============

func TestFindBestMatch_PicksClosestCandidate(t *testing.T) {
	embedder := keywordEmbedder("owner", "city", "tax")
	columns := []string{"owner_name", "city", "tax_amount"}

	index, score, err := FindBestMatch(context.Background(), embedder, columns, "what is the total tax in austin")
	require.NoError(t, err)
	assert.Equal(t, 2, index)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestFindBestMatch_CandidateMatchesItself(t *testing.T) {
	embedder := keywordEmbedder("owner", "city", "zip", "type")
	columns := []string{"owner_name", "city", "zip_code", "property_type"}

	for i, column := range columns {
		index, _, err := FindBestMatch(context.Background(), embedder, columns, column)
		require.NoError(t, err)
		assert.Equal(t, i, index, "column %s should match itself", column)
	}
}

func TestFindBestMatch_TieGoesToLowestIndex(t *testing.T) {
	embedder := keywordEmbedder("owner")
	columns := []string{"city", "zip_code", "owner_name", "owner_id"}

	index, _, err := FindBestMatch(context.Background(), embedder, columns, "owner")
	require.NoError(t, err)
	assert.Equal(t, 2, index)
}

func TestFindBestMatch_SendsOneBatch(t *testing.T) {
	calls := 0
	var batch []string
	embedder := EmbedderFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		batch = texts
		return keywordEmbedder("city")(ctx, texts)
	})

	_, _, err := FindBestMatch(context.Background(), embedder, []string{"owner_name", "city"}, "which city")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"owner_name", "city", "which city"}, batch)
}

func TestFindBestMatch_NoCandidates(t *testing.T) {
	_, _, err := FindBestMatch(context.Background(), keywordEmbedder("x"), nil, "query")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFindBestMatch_UpstreamFailure(t *testing.T) {
	embedder := EmbedderFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("connection refused")
	})

	_, _, err := FindBestMatch(context.Background(), embedder, []string{"city"}, "query")
	assert.ErrorIs(t, err, ErrUpstreamService)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFindBestMatch_WrongVectorCount(t *testing.T) {
	embedder := EmbedderFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	})

	_, _, err := FindBestMatch(context.Background(), embedder, []string{"city", "owner_name"}, "query")
	assert.ErrorIs(t, err, ErrUpstreamService)
}

// ============ Providers ============

func TestOllamaEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, []string{"city", "where"}, req.Input)

		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1, 0}, {0, 1}}})
	}))
	defer server.Close()

	vectors, err := NewOllamaEmbedder(server.URL+"/", "").Embed(context.Background(), []string{"city", "where"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
}

func TestOllamaEmbedder_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewOllamaEmbedder(server.URL, "missing").Embed(context.Background(), []string{"city"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenAIEmbedder_OrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-ada-002",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			]
		}`))
	}))
	defer server.Close()

	embedder, err := NewOpenAIEmbedder("test-key", server.URL+"/v1", "")
	require.NoError(t, err)

	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
}

func TestNewEmbedder_Providers(t *testing.T) {
	_, err := NewEmbedder(context.Background(), EmbedderConfig{Provider: "openai"})
	assert.Error(t, err, "openai without a key must fail")

	_, err = NewEmbedder(context.Background(), EmbedderConfig{Provider: "genai"})
	assert.Error(t, err, "genai without a key must fail")

	embedder, err := NewEmbedder(context.Background(), EmbedderConfig{Provider: "Ollama"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, embedder)

	_, err = NewEmbedder(context.Background(), EmbedderConfig{Provider: "word2vec"})
	assert.Error(t, err)
}
