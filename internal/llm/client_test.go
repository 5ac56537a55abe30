package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tmammadov17503/rag-ml-ops/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.ServiceConfig{Endpoint: srv.URL, Region: "us-east-1"})
}

func TestInvokeEmbedding_FlatShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/model/test-model/invoke" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"embedding": [0.1, 0.2, 0.3]}`)
	})
	vec, err := c.InvokeEmbedding(context.Background(), "hello", "test-model", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 {
		t.Errorf("len = %d", len(vec))
	}
}

func TestInvokeEmbedding_NestedShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"output": {"embedding": [0.5, 0.5]}}`)
	})
	vec, err := c.InvokeEmbedding(context.Background(), "hello", "m", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 {
		t.Errorf("len = %d", len(vec))
	}
}

func TestInvokeEmbedding_UnknownShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"vectors": [[1, 2]]}`)
	})
	if _, err := c.InvokeEmbedding(context.Background(), "hello", "m", 2); err == nil {
		t.Error("expected decode error for unknown response shape")
	}
}

func TestInvokeEmbedding_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	})
	if _, err := c.InvokeEmbedding(context.Background(), "hello", "m", 2); err == nil {
		t.Error("expected error for non-2xx status")
	}
}

func TestInvokeStream_Deltas(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/invoke-with-response-stream") {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hel\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"lo\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"ignored\"}}\n\n")
	})
	var got strings.Builder
	err := c.InvokeStream(context.Background(), &StreamRequest{
		ModelID:   "m",
		MaxTokens: 16,
		Messages:  []StreamMessage{{Role: "user", Content: "hi"}},
	}, func(text string) { got.WriteString(text) })
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "Hello" {
		t.Errorf("accumulated = %q", got.String())
	}
}

func TestInvokeStream_SkipsMalformedEvents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, ": comment line\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"ok\"}}\n\n")
	})
	var got strings.Builder
	if err := c.InvokeStream(context.Background(), &StreamRequest{ModelID: "m", MaxTokens: 16}, func(text string) {
		got.WriteString(text)
	}); err != nil {
		t.Fatal(err)
	}
	if got.String() != "ok" {
		t.Errorf("accumulated = %q", got.String())
	}
}

func TestInvokeStream_EarlyTerminationNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"partial\"}}\n\n")
		// No message_stop: connection just ends.
	})
	var got strings.Builder
	if err := c.InvokeStream(context.Background(), &StreamRequest{ModelID: "m", MaxTokens: 16}, func(text string) {
		got.WriteString(text)
	}); err != nil {
		t.Fatalf("early close should not error, got %v", err)
	}
	if got.String() != "partial" {
		t.Errorf("accumulated = %q", got.String())
	}
}

func TestInvokeStream_NonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})
	if err := c.InvokeStream(context.Background(), &StreamRequest{ModelID: "m", MaxTokens: 16}, func(string) {}); err == nil {
		t.Error("expected error for non-2xx status")
	}
}
