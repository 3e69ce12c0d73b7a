package provider

import (
	"context"
	"errors"
)

// ErrNoClient is returned when a completion is requested without a configured client.
var ErrNoClient = errors.New("provider: no completion client configured")

// Request is one single-turn completion: a system instruction, a user instruction and the
// generation limits. MaxOutputTokens truncates rather than errors. Temperature is always
// sent, 0 included.
type Request struct {
	System          string
	User            string
	MaxOutputTokens int64
	Temperature     float64

	// Samples is the number of completions requested. Only 1 is supported.
	Samples int
	Stop    []string

	// Schema, when set, asks for strict JSON output matching the schema.
	Schema *Schema
}

// Schema is a named JSON schema for structured output.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Completer is a remote LLM completion service. Implementations may return an empty string
// or an error for transient overloads; callers are expected to retry.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
