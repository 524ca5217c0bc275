package pkg

import (
	"context"
	"fmt"
	"math"
)

// Embedder turns texts into vectors, one per input and in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderFunc adapts a plain function to Embedder.
type EmbedderFunc func(ctx context.Context, texts []string) ([][]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f(ctx, texts)
}

// CosineSimilarity returns a value in [-1, 1]. A zero vector is similar to nothing.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMagnitude, bMagnitude float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMagnitude += float64(a[i]) * float64(a[i])
		bMagnitude += float64(b[i]) * float64(b[i])
	}
	if aMagnitude == 0 || bMagnitude == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMagnitude) * math.Sqrt(bMagnitude)), nil
}

// FindBestMatch embeds the candidates together with the query in a single batch and returns
// the index and cosine score of the candidate closest to the query. Ties go to the lower index.
func FindBestMatch(ctx context.Context, embedder Embedder, candidates []string, query string) (int, float64, error) {
	if len(candidates) == 0 {
		return -1, 0, fmt.Errorf("%w: no candidates to match against", ErrInvalidInput)
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, candidates...)
	texts = append(texts, query)

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return -1, 0, fmt.Errorf("%w: embedding request failed: %w", ErrUpstreamService, err)
	}
	if len(vectors) != len(texts) {
		return -1, 0, fmt.Errorf("%w: expected %d embeddings, got %d", ErrUpstreamService, len(texts), len(vectors))
	}

	queryVector := vectors[len(candidates)]
	bestIndex, bestScore := -1, math.Inf(-1)
	for i := range candidates {
		score, err := CosineSimilarity(queryVector, vectors[i])
		if err != nil {
			return -1, 0, fmt.Errorf("%w: %w", ErrUpstreamService, err)
		}
		if score > bestScore {
			bestIndex, bestScore = i, score
		}
	}
	return bestIndex, bestScore, nil
}
