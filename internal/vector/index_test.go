package vector

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func TestIndex_AddSearch(t *testing.T) {
	idx, err := New(3)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	texts := []string{"alpha", "beta", "gamma"}
	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	if err := idx.Add(ctx, texts, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "alpha" {
		t.Errorf("top result should be alpha, got %s", results[0].Text)
	}
	if results[0].Position != 0 {
		t.Errorf("top result position should be 0, got %d", results[0].Position)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not sorted by descending score")
	}
}

func TestIndex_SearchEmptyAndBounds(t *testing.T) {
	idx, _ := New(2)
	ctx := context.Background()

	results, err := idx.Search(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty index should return no results, got %d", len(results))
	}

	_ = idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})

	results, _ = idx.Search(ctx, []float32{1, 0}, 0)
	if len(results) != 0 {
		t.Errorf("k=0 should return no results, got %d", len(results))
	}

	results, _ = idx.Search(ctx, []float32{1, 0}, 10)
	if len(results) != 2 {
		t.Errorf("k beyond size should return all, got %d", len(results))
	}
}

func TestIndex_DimensionChecks(t *testing.T) {
	idx, _ := New(4)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"x"}, [][]float32{{1, 2}}); err == nil {
		t.Error("expected error adding wrong-dimension vector")
	}
	if _, err := idx.Search(ctx, []float32{1, 2}, 1); err == nil {
		t.Error("expected error searching with wrong-dimension query")
	}
	if _, err := New(0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}

func TestIndex_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.idx")
	ctx := context.Background()

	idx, _ := New(3)
	texts := []string{"cats are mammals", "rockets use fuel"}
	vecs := [][]float32{{0.5, 0.5, 0}, {0, 0.1, 0.9}}
	if err := idx.Add(ctx, texts, vecs); err != nil {
		t.Fatal(err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, _ := New(3)
	if err := loaded.Load(path, texts); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded size=%d", loaded.Size())
	}

	query := []float32{0.4, 0.6, 0}
	before, _ := idx.Search(ctx, query, 2)
	after, _ := loaded.Search(ctx, query, 2)
	if len(before) != len(after) {
		t.Fatalf("result count differs: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Text != after[i].Text {
			t.Errorf("result %d text differs: %q vs %q", i, before[i].Text, after[i].Text)
		}
		if math.Abs(before[i].Score-after[i].Score) > 1e-9 {
			t.Errorf("result %d score differs: %v vs %v", i, before[i].Score, after[i].Score)
		}
	}
}

func TestIndex_LoadConsistencyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.idx")
	ctx := context.Background()

	idx, _ := New(3)
	_ = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	wrongDim, _ := New(4)
	if err := wrongDim.Load(path, []string{"a"}); err == nil {
		t.Error("expected dimension mismatch error")
	}

	sameDim, _ := New(3)
	if err := sameDim.Load(path, []string{"a", "b"}); err == nil {
		t.Error("expected count mismatch error")
	}
}
