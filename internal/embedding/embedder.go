// Package embedding turns text into fixed-dimension vectors, remote-first
// with a deterministic local fallback.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations return one
// vector per input text, in input order; empty input yields empty output.
// EmbedAt embeds at an explicit dimension instead of the configured default,
// so queries against a loaded index can always match its dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedAt(ctx context.Context, text string, dimensions int) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
