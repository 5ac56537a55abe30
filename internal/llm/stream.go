package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Stream event types emitted by the messages API.
const (
	eventContentBlockDelta = "content_block_delta"
	eventMessageStop       = "message_stop"
	deltaTypeText          = "text_delta"
)

// StreamRequest describes one streaming chat completion call.
type StreamRequest struct {
	ModelID   string
	Messages  []StreamMessage
	System    string
	MaxTokens int
}

// StreamMessage is a single conversation turn sent to the model.
type StreamMessage struct {
	Role    string
	Content string
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type streamPayload struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system,omitempty"`
	Messages         []streamMessage `json:"messages"`
}

type streamMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// InvokeStream runs a streaming chat completion, calling onDelta for each text
// fragment in arrival order. The stream ends on a message_stop event or when
// the body is exhausted. An upstream connection closing early is not an error:
// fragments already delivered stand, and the stream simply stops.
func (c *Client) InvokeStream(ctx context.Context, req *StreamRequest, onDelta func(text string)) error {
	payload := streamPayload{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        req.MaxTokens,
		System:           req.System,
	}
	for _, m := range req.Messages {
		payload.Messages = append(payload.Messages, streamMessage{
			Role:    m.Role,
			Content: []contentBlock{{Type: "text", Text: m.Content}},
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal stream request: %w", err)
	}

	u := fmt.Sprintf("%s/model/%s/invoke-with-response-stream", c.endpoint, url.PathEscape(req.ModelID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b := make([]byte, 512)
		n, _ := resp.Body.Read(b)
		return fmt.Errorf("chat service returned %d: %s", resp.StatusCode, snippet(b[:n]))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			c.logger.Debug("skipping malformed stream event", zap.Error(err))
			continue
		}
		switch ev.Type {
		case eventContentBlockDelta:
			if ev.Delta.Type == deltaTypeText && ev.Delta.Text != "" {
				onDelta(ev.Delta.Text)
			}
		case eventMessageStop:
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		// Early termination: deliver what we have and stop quietly.
		c.logger.Debug("stream ended early", zap.Error(err))
	}
	return nil
}
