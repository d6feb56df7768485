package models

import "encoding/json"

type ChatRequest struct {
	Messages  []Message `json:"messages"`
	MaxTokens *int      `json:"maxTokens,omitempty"`
	// APIKey overrides the server's completion credential for this request.
	APIKey string `json:"apiKey,omitempty"`
}

// Message is one conversation turn. Content is kept raw so both plain strings
// and content-block arrays pass through unchanged.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// TextMessage builds a message whose content is a plain string.
func TextMessage(role, text string) Message {
	b, _ := json.Marshal(text)
	return Message{Role: role, Content: b}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status,omitempty"`
}
