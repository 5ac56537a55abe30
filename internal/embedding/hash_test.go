package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/tmammadov17503/rag-ml-ops/internal/vector"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(8)
	ctx := context.Background()

	a1, err := e.Embed(ctx, "cats are mammals")
	if err != nil {
		t.Fatal(err)
	}
	a2, _ := e.Embed(ctx, "cats are mammals")
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("embedding not deterministic at %d: %v != %v", i, a1[i], a2[i])
		}
	}
}

func TestHashEmbedder_DistinctTexts(t *testing.T) {
	e := NewHashEmbedder(8)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "cats are mammals")
	b, _ := e.Embed(ctx, "rockets use fuel")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestHashEmbedder_UnitNorm(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	for _, text := range []string{"a", "hello world", "the quick brown fox"} {
		v, _ := e.Embed(ctx, text)
		if len(v) != 256 {
			t.Fatalf("len = %d", len(v))
		}
		if norm := vector.L2Norm(v); math.Abs(norm-1) > 1e-5 {
			t.Errorf("norm(%q) = %v", text, norm)
		}
	}
}

func TestHashEmbedder_EmbedAt(t *testing.T) {
	e := NewHashEmbedder(8)
	ctx := context.Background()

	v, err := e.EmbedAt(ctx, "cats are mammals", 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 16 {
		t.Fatalf("len = %d, want the requested dimension 16", len(v))
	}
	if norm := vector.L2Norm(v); math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm = %v", norm)
	}
	// Same as an embedder configured at that dimension.
	want, _ := NewHashEmbedder(16).Embed(ctx, "cats are mammals")
	for i := range v {
		if v[i] != want[i] {
			t.Fatalf("EmbedAt differs from a 16-dimensional embedder at %d", i)
		}
	}
}

func TestHashEmbedder_EmptyBatch(t *testing.T) {
	e := NewHashEmbedder(4)
	out, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("len = %d", len(out))
	}
}
