package models

import "time"

// SearchRequest is the body of a retrieval request.
type SearchRequest struct {
	Query  string `json:"query"`
	K      int    `json:"k,omitempty"`
	Hybrid bool   `json:"hybrid,omitempty"` // fuse keyword scores when the keyword index is enabled
}

// SearchHit is one retrieved passage with its similarity score.
type SearchHit struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// SearchResponse is the response for a retrieval request.
type SearchResponse struct {
	Hits      []SearchHit `json:"hits"`
	Query     string      `json:"query"`
	QueryTime int64       `json:"query_time_ms"`
}

// EmbedRequest is the body of an embedding request.
type EmbedRequest struct {
	Texts []string `json:"texts"`
}

// EmbedResponse carries one vector per input text, in input order.
type EmbedResponse struct {
	Vectors    [][]float32 `json:"vectors"`
	Dimensions int         `json:"dimensions"`
}

// Exchange is one recorded question/answer pair of a chat session.
type Exchange struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Context   string    `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
