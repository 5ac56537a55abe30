package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndBySession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Record(ctx, "sess-1", "what is Go?", "a language", "Go is a language.")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == "" {
		t.Error("exchange id not generated")
	}
	if _, err := s.Record(ctx, "sess-1", "who made it?", "Google", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Record(ctx, "sess-2", "unrelated", "yes", ""); err != nil {
		t.Fatal(err)
	}

	got, err := s.BySession(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("exchanges = %d, want 2", len(got))
	}
	if got[0].Question != "what is Go?" || got[1].Question != "who made it?" {
		t.Errorf("wrong order: %q then %q", got[0].Question, got[1].Question)
	}
	if got[0].Context != "Go is a language." {
		t.Errorf("context = %q", got[0].Context)
	}
}

func TestStore_BySessionEmpty(t *testing.T) {
	s := openTestStore(t)
	got, err := s.BySession(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("exchanges = %d, want 0", len(got))
	}
}

func TestStore_CountExchanges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	n, err := s.CountExchanges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
	if _, err := s.Record(ctx, "s", "q", "a", ""); err != nil {
		t.Fatal(err)
	}
	n, err = s.CountExchanges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
