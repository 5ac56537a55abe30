package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Meta is the JSON sidecar persisted next to the vector blob. It carries the
// passage texts in index position order plus the embedding dimension, which
// together are enough to reconstitute the full index.
type Meta struct {
	Dim   int      `json:"dim"`
	Texts []string `json:"texts"`
}

// SaveMeta writes meta as JSON to path, creating parent directories.
func SaveMeta(path string, meta *Meta) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// LoadMeta reads the JSON sidecar at path.
func LoadMeta(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if meta.Dim <= 0 {
		return nil, fmt.Errorf("metadata dimension %d is not positive", meta.Dim)
	}
	return &meta, nil
}
