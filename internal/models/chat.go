// Package models defines request/response and domain types for the RAG API.
package models

import "fmt"

// Chat message roles accepted by the chat endpoint.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a streaming chat request.
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	UseRAG    *bool         `json:"use_rag,omitempty"` // nil means true
	K         int           `json:"k,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

// RAGEnabled reports whether retrieval should run for this request; retrieval
// is on unless explicitly disabled.
func (r *ChatRequest) RAGEnabled() bool {
	return r.UseRAG == nil || *r.UseRAG
}

// Validate checks the request shape and normalizes k against the given
// default and maximum. The last message must come from the user, since it is
// the question that gets augmented with retrieved context.
func (r *ChatRequest) Validate(defaultK, maxK int) error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages cannot be empty")
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return fmt.Errorf("message %d has unknown role %q", i, m.Role)
		}
	}
	if last := r.Messages[len(r.Messages)-1]; last.Role != RoleUser {
		return fmt.Errorf("last message must have role %q, got %q", RoleUser, last.Role)
	}
	if r.K <= 0 {
		r.K = defaultK
	}
	if r.K > maxK {
		r.K = maxK
	}
	return nil
}

// Question returns the content of the final user message.
func (r *ChatRequest) Question() string {
	return r.Messages[len(r.Messages)-1].Content
}
