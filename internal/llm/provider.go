package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one response from a model. Wrappers (logging, retry,
// timeout) implement it too, so callers only see a Provider.
type Provider interface {
	// Generate returns the model output for req. With a Schema set the
	// Content is a JSON object already checked against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model.
	ModelID() string
}

// Request is a single generation call.
type Request struct {
	System   string
	Messages []Message
	// Schema, when set, asks for JSON through the provider's native
	// structured output and validates the result.
	Schema *Schema

	MaxTokens int
	// Temperature is 0..1; zero is deterministic.
	Temperature float64
}

// Prompt is a request with one user message.
func Prompt(system, user string, schema *Schema) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
		Schema:   schema,
	}
}

// FollowUp returns a copy of r continued with the model's reply and a new
// user message, for asking the model to correct itself.
func (r Request) FollowUp(reply, user string) Request {
	msgs := make([]Message, 0, len(r.Messages)+2)
	msgs = append(msgs, r.Messages...)
	r.Messages = append(msgs,
		Message{Role: RoleAssistant, Content: reply},
		Message{Role: RoleUser, Content: user},
	)
	return r
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a JSON Schema the response must satisfy.
type Schema struct {
	// Name is kebab-case, e.g. "concept-definition". Anthropic uses it as
	// the tool name and OpenAI as the schema name.
	Name        string
	Description string
	Definition  map[string]any
}

// Response is one model output.
type Response struct {
	// Content is the validated JSON object, or the raw text as a JSON
	// string when the request had no schema.
	Content json.RawMessage
	Usage   Usage
	// Model is the model that served the request, which may differ from
	// ModelID when the provider aliases.
	Model string
	// StopReason is "end" for a complete response. Truncated and blocked
	// responses come back as ErrMaxTokensExceeded and ErrContentFiltered.
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Decode unmarshals the response content into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Content, v); err != nil {
		return &ErrInvalidResponse{Content: r.Content, Err: err}
	}
	return nil
}
