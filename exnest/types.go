package exnest

import (
	"strconv"
	"time"
)

// Message roles accepted by the API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a Message, rejecting roles outside the enumerated set.
func NewMessage(role, content string) (Message, error) {
	m := Message{Role: role, Content: content}
	if err := m.validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// SystemMessage creates a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func (m Message) validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
		return nil
	}
	return &ConfigurationError{SDKError: SDKError{
		Message: "invalid message role " + strconv.Quote(m.Role) + " (want system, user, or assistant)",
	}}
}

// ChatOptions are per-call overrides for chat and completion requests.
// A nil ChatOptions means all defaults. Pointer fields are omitted from the
// request body when nil.
type ChatOptions struct {
	// Temperature in [0, 2].
	Temperature *float64
	// MaxTokens caps the completion length.
	MaxTokens *int
	// Timeout overrides the client timeout for this call only.
	Timeout time.Duration
	// Stream requests an SSE response. Set implicitly by Stream methods.
	Stream bool
	// OpenAICompatible asks the API for an OpenAI-shaped response.
	OpenAICompatible *bool
	// ExnestMetadata asks the API to include billing metadata in meta.
	ExnestMetadata *bool
}

// Float returns a pointer to v, for optional ChatOptions fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for optional ChatOptions fields.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional ChatOptions fields.
func Bool(v bool) *bool { return &v }

// Usage reports token consumption for a completed request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one generated alternative. Chat responses populate Message,
// text completions populate Text.
type Choice struct {
	Index        *int     `json:"index,omitempty"`
	Message      *Message `json:"message,omitempty"`
	Text         string   `json:"text,omitempty"`
	FinishReason *string  `json:"finish_reason,omitempty"`
}

// ResponseData is the data portion of a successful response envelope.
type ResponseData struct {
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// ErrorDetail is the error portion of a failed response envelope.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

// Meta carries request metadata and billing information.
type Meta struct {
	Timestamp       string `json:"timestamp,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
	Version         string `json:"version,omitempty"`
	ExecutionTime   string `json:"execution_time,omitempty"`
	ExecutionTimeMS *int   `json:"execution_time_ms,omitempty"`
}

// Response is the API's response envelope for chat and completion calls.
// Success=false or a non-nil Error signal an API-level failure; both must be
// checked, since the API does not always populate them together.
type Response struct {
	Success    bool          `json:"success"`
	StatusCode int           `json:"status_code"`
	Message    string        `json:"message,omitempty"`
	Data       *ResponseData `json:"data,omitempty"`
	// Choices mirrors deployments that place choices at the envelope top
	// level instead of under data.
	Choices []Choice     `json:"choices,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Meta    *Meta        `json:"meta,omitempty"`
}

// AllChoices returns the response choices, preferring data.choices over
// top-level choices.
func (r *Response) AllChoices() []Choice {
	if r.Data != nil && len(r.Data.Choices) > 0 {
		return r.Data.Choices
	}
	return r.Choices
}

// Text returns the content of the first choice, from either the chat message
// or the completion text. Empty when there are no choices.
func (r *Response) Text() string {
	choices := r.AllChoices()
	if len(choices) == 0 {
		return ""
	}
	if choices[0].Message != nil {
		return choices[0].Message.Content
	}
	return choices[0].Text
}

// Failed reports whether the response carries an API-level failure.
func (r *Response) Failed() bool {
	return !r.Success || r.Error != nil
}

// Delta is a partial content fragment in a streaming response.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// StreamChoice is one choice slot within a stream chunk.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

// StreamChunk is a single parsed SSE event from a streaming call.
type StreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

// Text returns the content delta of the first choice in the chunk.
func (c *StreamChunk) Text() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// ModelProvider identifies the upstream provider of a catalog model.
type ModelProvider struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// ModelPricing is the per-unit price of a catalog model.
type ModelPricing struct {
	InputPrice  string `json:"inputPrice"`
	OutputPrice string `json:"outputPrice"`
	Currency    string `json:"currency"`
	Per         string `json:"per"`
}

// ModelLimits are the token limits of a catalog model.
type ModelLimits struct {
	MaxTokens     int `json:"maxTokens"`
	ContextWindow int `json:"contextWindow"`
}

// Model is an entry in the ExnestAI model catalog.
type Model struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	DisplayName string        `json:"displayName"`
	Description string        `json:"description"`
	Provider    ModelProvider `json:"provider"`
	Pricing     ModelPricing  `json:"pricing"`
	Limits      ModelLimits   `json:"limits"`
	IsActive    bool          `json:"isActive"`
	CreatedAt   string        `json:"createdAt"`
}

// Health is the result of Client.HealthCheck.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Config    Options   `json:"config"`
}
