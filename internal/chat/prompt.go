// Package chat turns a validated chat request into a streamed, context-aware
// answer and records the exchange.
package chat

import (
	"fmt"
	"strings"

	"github.com/tmammadov17503/rag-ml-ops/internal/models"
)

const contextSeparator = "\n\n---\n\n"

const promptTemplate = `You are a helpful assistant.
Use ONLY the CONTEXT below to answer. If missing, say you don't know.

CONTEXT:
%s

QUESTION:
%s

ANSWER:`

// JoinContext concatenates retrieved passages into a single context block.
func JoinContext(hits []models.SearchHit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Text)
	}
	return strings.Join(parts, contextSeparator)
}

// BuildPrompt renders the grounded question sent in place of the user's final
// message.
func BuildPrompt(contextBlock, question string) string {
	return fmt.Sprintf(promptTemplate, contextBlock, question)
}
