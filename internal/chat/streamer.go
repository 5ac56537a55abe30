package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tmammadov17503/rag-ml-ops/internal/config"
	"github.com/tmammadov17503/rag-ml-ops/internal/llm"
	"github.com/tmammadov17503/rag-ml-ops/internal/models"
)

// Retriever supplies context passages for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.SearchHit, error)
}

// Completer runs a streaming chat completion.
type Completer interface {
	InvokeStream(ctx context.Context, req *llm.StreamRequest, onDelta func(text string)) error
}

// Recorder persists a finished exchange.
type Recorder interface {
	Record(ctx context.Context, sessionID, question, answer, ragContext string) (*models.Exchange, error)
}

// Streamer answers chat requests: it retrieves context, augments the final
// user message, streams model output token by token, and records the
// exchange once the stream finishes.
type Streamer struct {
	retriever Retriever
	completer Completer
	recorder  Recorder
	cfg       *config.ChatConfig
	logger    *zap.Logger
}

// NewStreamer wires the chat pipeline. recorder may be nil to disable
// history.
func NewStreamer(retriever Retriever, completer Completer, recorder Recorder, cfg *config.ChatConfig, logger *zap.Logger) *Streamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Streamer{
		retriever: retriever,
		completer: completer,
		recorder:  recorder,
		cfg:       cfg,
		logger:    logger,
	}
}

// Answer streams the model's answer for a validated request, calling onToken
// for each fragment. It returns the complete answer. Retrieval trouble
// degrades to an unaugmented question rather than failing the chat.
func (s *Streamer) Answer(ctx context.Context, req *models.ChatRequest, onToken func(token string)) (string, error) {
	question := req.Question()

	var ragContext string
	if req.RAGEnabled() {
		hits, err := s.retriever.Retrieve(ctx, question, req.K)
		if err != nil {
			s.logger.Warn("context retrieval failed, answering without context", zap.Error(err))
		} else {
			ragContext = JoinContext(hits)
		}
	}

	messages := make([]llm.StreamMessage, 0, len(req.Messages))
	for _, m := range req.Messages[:len(req.Messages)-1] {
		messages = append(messages, llm.StreamMessage{Role: m.Role, Content: m.Content})
	}
	final := question
	if ragContext != "" {
		final = BuildPrompt(ragContext, question)
	}
	messages = append(messages, llm.StreamMessage{Role: models.RoleUser, Content: final})

	var answer strings.Builder
	err := s.completer.InvokeStream(ctx, &llm.StreamRequest{
		ModelID:   s.cfg.ModelID,
		Messages:  messages,
		MaxTokens: s.cfg.MaxTokens,
	}, func(text string) {
		answer.WriteString(text)
		onToken(text)
	})
	if err != nil {
		return answer.String(), err
	}

	s.record(ctx, req.SessionID, question, answer.String(), ragContext)
	return answer.String(), nil
}

// record persists the exchange; failures are logged, never surfaced, since
// the answer has already been delivered.
func (s *Streamer) record(ctx context.Context, sessionID, question, answer, ragContext string) {
	if s.recorder == nil || sessionID == "" {
		return
	}
	if _, err := s.recorder.Record(ctx, sessionID, question, answer, ragContext); err != nil {
		s.logger.Warn("recording exchange failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}
