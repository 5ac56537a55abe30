package llm

import (
	"encoding/json"
	"fmt"
)

// The gateway returns embeddings in one of two shapes depending on the model
// revision behind it:
//
//	flat:   {"embedding": [0.1, ...]}
//	nested: {"output": {"embedding": [0.1, ...]}}
//
// decodeEmbedding probes them in that fixed order and fails loudly on
// anything else.

type flatEmbedding struct {
	Embedding []float32 `json:"embedding"`
}

type nestedEmbedding struct {
	Output struct {
		Embedding []float32 `json:"embedding"`
	} `json:"output"`
}

func decodeEmbedding(payload []byte) ([]float32, error) {
	var flat flatEmbedding
	if err := json.Unmarshal(payload, &flat); err == nil && len(flat.Embedding) > 0 {
		return flat.Embedding, nil
	}
	var nested nestedEmbedding
	if err := json.Unmarshal(payload, &nested); err == nil && len(nested.Output.Embedding) > 0 {
		return nested.Output.Embedding, nil
	}
	return nil, fmt.Errorf("unrecognized embedding response shape: %s", snippet(payload))
}
