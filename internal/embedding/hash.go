package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/tmammadov17503/rag-ml-ops/internal/vector"
)

// HashEmbedder produces deterministic pseudo-random unit vectors derived from
// a stable hash of the text. It keeps the system usable (with degraded
// relevance) when the remote embedding service is unavailable, and repeated
// runs embed the same text to the bit-identical vector.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns a deterministic embedder at the given dimension.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the deterministic unit vector for text at the configured
// dimension.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedAt(ctx, text, e.dimensions)
}

// EmbedAt returns the deterministic unit vector for text at the given
// dimension.
func (e *HashEmbedder) EmbedAt(ctx context.Context, text string, dimensions int) ([]float32, error) {
	if dimensions <= 0 {
		dimensions = e.dimensions
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	// Fold the hash into a small float seed so sin stays well-conditioned.
	seed := float64(h.Sum64() % 1000003)

	emb := make([]float32, dimensions)
	for i := range emb {
		emb[i] = float32(math.Sin(seed*float64(i+1))*0.1 + 0.01)
	}
	return vector.Normalize(emb), nil
}

// EmbedBatch embeds each text independently.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}
