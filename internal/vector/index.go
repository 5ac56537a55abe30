// Package vector provides a flat similarity index over embedded passages.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// entry holds one passage together with its embedding. Vector and text are
// owned as a single record so they cannot drift apart.
type entry struct {
	vector []float32
	text   string
}

// Result is a single similarity search hit.
type Result struct {
	Text     string
	Score    float64 // inner product; equals cosine similarity for normalized vectors
	Position int     // position of the passage in corpus order
}

// Index is an append-only flat index scored by inner product. It is safe for
// concurrent reads; writes only happen during the build phase.
type Index struct {
	dimensions int
	entries    []entry
	mu         sync.RWMutex
}

// New creates an empty index configured for the given dimension.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &Index{dimensions: dimensions}, nil
}

// Add appends passages with their embeddings. texts and vectors must have the
// same length and every vector must match the index dimension.
func (x *Index) Add(ctx context.Context, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("texts and vectors length mismatch: %d != %d", len(texts), len(vectors))
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, vec := range vectors {
		if len(vec) != x.dimensions {
			return fmt.Errorf("vector dimension mismatch at %d: got %d, expected %d", i, len(vec), x.dimensions)
		}
		v := make([]float32, x.dimensions)
		copy(v, vec)
		x.entries = append(x.entries, entry{vector: v, text: texts[i]})
	}
	return nil
}

// Search returns up to k passages ranked by descending inner product with the
// query. An empty index or k <= 0 yields an empty result, not an error.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dimensions)
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if k <= 0 || len(x.entries) == 0 {
		return nil, nil
	}
	results := make([]*Result, len(x.entries))
	for i, e := range x.entries {
		results[i] = &Result{
			Text:     e.text,
			Score:    InnerProduct(query, e.vector),
			Position: i,
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Size returns the number of stored passages.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Dimensions returns the configured vector dimension.
func (x *Index) Dimensions() int {
	return x.dimensions
}

// Texts returns the stored passages in insertion order.
func (x *Index) Texts() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	texts := make([]string, len(x.entries))
	for i, e := range x.entries {
		texts[i] = e.text
	}
	return texts
}

// Save writes the vectors to path as an opaque blob: dimension (uint32), count
// (uint32), then count*dimension little-endian float32s. Passage texts are not
// part of the blob; they belong to the metadata artifact kept by the store.
func (x *Index) Save(path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(x.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(x.entries))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, e := range x.entries {
		if _, err := f.Write(float32SliceToBytes(e.vector)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the index contents with the blob at path, pairing each stored
// vector with the corresponding text from the metadata record. The blob
// dimension must equal the index dimension and the vector count must equal
// len(texts); either mismatch means the persisted artifacts are inconsistent
// and loading fails rather than serving from bad state.
func (x *Index) Load(path string, texts []string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != x.dimensions {
		return fmt.Errorf("index dimension mismatch: blob has %d, metadata says %d", dim, x.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	if int(n) != len(texts) {
		return fmt.Errorf("index count mismatch: blob has %d vectors, metadata has %d texts", n, len(texts))
	}
	entries := make([]entry, 0, n)
	buf := make([]byte, x.dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		entries = append(entries, entry{vector: bytesToFloat32Slice(buf), text: texts[i]})
	}
	x.mu.Lock()
	x.entries = entries
	x.mu.Unlock()
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out
}
