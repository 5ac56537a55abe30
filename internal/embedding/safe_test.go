package embedding

import (
	"context"
	"fmt"
	"math"
	"testing"
)

// fakeInvoker scripts remote embedding behavior per text.
type fakeInvoker struct {
	vectors  map[string][]float32
	err      error
	calls    int
	lastDims int
}

func (f *fakeInvoker) InvokeEmbedding(ctx context.Context, text, modelID string, dimensions int) ([]float32, error) {
	f.calls++
	f.lastDims = dimensions
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no vector for %q", text)
}

func TestSafeEmbedder_RemotePath(t *testing.T) {
	inv := &fakeInvoker{vectors: map[string][]float32{
		"a": {3, 4},
	}}
	e := NewSafeEmbedder(inv, "m", 2)
	v, err := e.Embed(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	// Remote vectors are normalized.
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("vector = %v, want normalized [0.6 0.8]", v)
	}
}

func TestSafeEmbedder_FallbackOnError(t *testing.T) {
	inv := &fakeInvoker{err: fmt.Errorf("service unavailable")}
	e := NewSafeEmbedder(inv, "m", 4)
	v, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("remote failure must not propagate, got %v", err)
	}
	want, _ := NewHashEmbedder(4).Embed(context.Background(), "hello")
	for i := range v {
		if v[i] != want[i] {
			t.Fatalf("fallback vector differs from hash embedder at %d", i)
		}
	}
}

func TestSafeEmbedder_FallbackOnDimensionMismatch(t *testing.T) {
	inv := &fakeInvoker{vectors: map[string][]float32{"a": {1, 2, 3}}}
	e := NewSafeEmbedder(inv, "m", 2)
	v, err := e.Embed(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 2 {
		t.Errorf("len = %d, want fallback at configured dimension 2", len(v))
	}
}

func TestSafeEmbedder_BatchAllOrNothing(t *testing.T) {
	// "a" succeeds remotely, "b" fails: the whole batch must come from the
	// fallback so vectors stay in one space.
	inv := &fakeInvoker{vectors: map[string][]float32{"a": {1, 0}}}
	e := NewSafeEmbedder(inv, "m", 2, WithCache(0))
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d", len(out))
	}
	hash := NewHashEmbedder(2)
	wantA, _ := hash.Embed(context.Background(), "a")
	for i := range wantA {
		if out[0][i] != wantA[i] {
			t.Fatal("batch with a failed item must be fully fallback-embedded")
		}
	}
}

func TestSafeEmbedder_EmptyBatch(t *testing.T) {
	e := NewSafeEmbedder(&fakeInvoker{}, "m", 2)
	out, err := e.EmbedBatch(context.Background(), []string{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("len = %d", len(out))
	}
}

func TestSafeEmbedder_CachesRemoteVectors(t *testing.T) {
	inv := &fakeInvoker{vectors: map[string][]float32{"a": {1, 0}}}
	e := NewSafeEmbedder(inv, "m", 2)
	_, _ = e.Embed(context.Background(), "a")
	_, _ = e.Embed(context.Background(), "a")
	if inv.calls != 1 {
		t.Errorf("remote calls = %d, want 1 (second hit cached)", inv.calls)
	}
}

func TestSafeEmbedder_EmbedAtRequestsDimension(t *testing.T) {
	inv := &fakeInvoker{vectors: map[string][]float32{"a": {1, 0, 0}}}
	e := NewSafeEmbedder(inv, "m", 2)

	v, err := e.EmbedAt(context.Background(), "a", 3)
	if err != nil {
		t.Fatal(err)
	}
	if inv.lastDims != 3 {
		t.Errorf("remote asked for %d dimensions, want 3", inv.lastDims)
	}
	if len(v) != 3 {
		t.Errorf("len = %d, want 3", len(v))
	}
}

func TestSafeEmbedder_EmbedAtFallsBackAtRequestedDimension(t *testing.T) {
	inv := &fakeInvoker{err: fmt.Errorf("service unavailable")}
	e := NewSafeEmbedder(inv, "m", 4)

	v, err := e.EmbedAt(context.Background(), "hello", 8)
	if err != nil {
		t.Fatalf("remote failure must not propagate, got %v", err)
	}
	if len(v) != 8 {
		t.Fatalf("len = %d, want the requested dimension 8", len(v))
	}
	want, _ := NewHashEmbedder(8).Embed(context.Background(), "hello")
	for i := range v {
		if v[i] != want[i] {
			t.Fatalf("fallback vector differs from hash embedder at %d", i)
		}
	}
}

func TestSafeEmbedder_CacheMissOnDifferentDimension(t *testing.T) {
	inv := &fakeInvoker{vectors: map[string][]float32{"a": {1, 0}}}
	e := NewSafeEmbedder(inv, "m", 2)

	if _, err := e.Embed(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	// Same text at another dimension must go back to the remote, never reuse
	// the 2-dimensional cached vector.
	v, err := e.EmbedAt(context.Background(), "a", 4)
	if err != nil {
		t.Fatal(err)
	}
	if inv.calls != 2 {
		t.Errorf("remote calls = %d, want 2", inv.calls)
	}
	// The scripted reply has 2 floats, so the 4-dimensional request falls back.
	if len(v) != 4 {
		t.Errorf("len = %d, want 4", len(v))
	}
}

func TestCache_Eviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})
	if c.Len() != 2 {
		t.Errorf("len = %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry missing")
	}
}
