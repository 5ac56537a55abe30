package embedding

import (
	"context"
	"fmt"

	"github.com/tmammadov17503/rag-ml-ops/internal/vector"
	"go.uber.org/zap"
)

// Invoker is the remote embedding call consumed by SafeEmbedder. It is
// satisfied by llm.Client.
type Invoker interface {
	InvokeEmbedding(ctx context.Context, text, modelID string, dimensions int) ([]float32, error)
}

// SafeEmbedder embeds through the remote service and falls back to
// deterministic local vectors when the remote path fails. Fallback is
// all-or-nothing at batch granularity: one failed text fails the whole batch
// over, so a batch never mixes remote and fallback vector spaces. Remote and
// fallback vectors are both L2-normalized, keeping inner-product scoring
// equal to cosine similarity.
type SafeEmbedder struct {
	client     Invoker
	modelID    string
	dimensions int
	fallback   *HashEmbedder
	cache      *Cache
	logger     *zap.Logger
}

// SafeOption configures a SafeEmbedder.
type SafeOption func(*SafeEmbedder)

// WithLogger sets a logger for fallback events.
func WithLogger(l *zap.Logger) SafeOption {
	return func(e *SafeEmbedder) { e.logger = l }
}

// WithCache sets the LRU cache capacity for remote embeddings; 0 disables
// caching.
func WithCache(capacity int) SafeOption {
	return func(e *SafeEmbedder) {
		if capacity > 0 {
			e.cache = NewCache(capacity)
		} else {
			e.cache = nil
		}
	}
}

// NewSafeEmbedder creates a remote-with-fallback embedder at the given
// dimension.
func NewSafeEmbedder(client Invoker, modelID string, dimensions int, opts ...SafeOption) *SafeEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	e := &SafeEmbedder{
		client:     client,
		modelID:    modelID,
		dimensions: dimensions,
		fallback:   NewHashEmbedder(dimensions),
		cache:      NewCache(10000),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dimensions returns the embedding dimension.
func (e *SafeEmbedder) Dimensions() int {
	return e.dimensions
}

// Embed embeds one text at the configured dimension, falling back locally on
// any remote failure. The returned error is always nil: remote trouble
// degrades, it never propagates.
func (e *SafeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedAt(ctx, text, e.dimensions)
}

// EmbedAt embeds one text at an explicit dimension. The remote call requests
// that dimension and a mismatched reply triggers the fallback, so the caller
// always gets a vector of exactly the requested length.
func (e *SafeEmbedder) EmbedAt(ctx context.Context, text string, dimensions int) ([]float32, error) {
	if dimensions <= 0 {
		dimensions = e.dimensions
	}
	vec, err := e.embedRemote(ctx, text, dimensions)
	if err != nil {
		e.logger.Warn("remote embedding failed, using local fallback", zap.Error(err))
		return e.fallback.EmbedAt(ctx, text, dimensions)
	}
	return vec, nil
}

// EmbedBatch embeds texts in order. If any remote call fails, the entire
// batch is re-embedded through the fallback path.
func (e *SafeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedRemote(ctx, text, e.dimensions)
		if err != nil {
			e.logger.Warn("remote embedding failed, falling back for whole batch",
				zap.Int("batch_size", len(texts)), zap.Error(err))
			return e.fallback.EmbedBatch(ctx, texts)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *SafeEmbedder) embedRemote(ctx context.Context, text string, dimensions int) ([]float32, error) {
	if e.cache != nil {
		// A hit at a different dimension is a miss, not a resize.
		if vec, ok := e.cache.Get(text); ok && len(vec) == dimensions {
			out := make([]float32, len(vec))
			copy(out, vec)
			return out, nil
		}
	}
	if e.client == nil {
		return nil, fmt.Errorf("no embedding client configured")
	}
	vec, err := e.client.InvokeEmbedding(ctx, text, e.modelID, dimensions)
	if err != nil {
		return nil, err
	}
	if len(vec) != dimensions {
		return nil, fmt.Errorf("remote embedding dimension mismatch: got %d, expected %d", len(vec), dimensions)
	}
	vector.Normalize(vec)
	if e.cache != nil {
		e.cache.Set(text, vec)
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, nil
}
