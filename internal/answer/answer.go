// Package answer provides the answer adapter: one call that turns a
// translated query plus conversation context into a generated answer.
package answer

import (
	"context"
)

// Request carries everything the generation engine needs for one answer.
type Request struct {
	Query       string
	Language    string
	Email       string
	UserName    string
	MessageID   string
	ChatHistory string
}

// Result is the generated answer plus engine metadata.
type Result struct {
	Answer           string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
}

// Generator produces an answer for a query.
type Generator interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}
