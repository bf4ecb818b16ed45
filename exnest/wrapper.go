package exnest

import "context"

// defaultResponseMaxTokens caps the single-turn Response convenience call.
const defaultResponseMaxTokens = 200

// Wrapper is the minimal facade: construct with an API key, everything else
// at defaults. It delegates to the same retry and transport pipeline as
// Client.
type Wrapper struct {
	client *Client
}

// WrapperOption adjusts the configuration built by NewWrapper.
type WrapperOption func(*Options)

// WithBaseURL points the wrapper at a non-default endpoint.
func WithBaseURL(url string) WrapperOption {
	return func(o *Options) {
		o.BaseURL = url
	}
}

// NewWrapper creates the simple facade.
func NewWrapper(apiKey string, opts ...WrapperOption) (*Wrapper, error) {
	options := Options{APIKey: apiKey}
	for _, opt := range opts {
		opt(&options)
	}
	client, err := NewClient(options)
	if err != nil {
		return nil, err
	}
	return &Wrapper{client: client}, nil
}

// Chat sends a chat completion with default options.
func (w *Wrapper) Chat(ctx context.Context, model string, messages []Message) (*Response, error) {
	return w.client.Chat(ctx, model, messages, nil)
}

// Completion sends a text completion. maxTokens <= 0 leaves the limit unset.
func (w *Wrapper) Completion(ctx context.Context, model, prompt string, maxTokens int) (*Response, error) {
	var opts *ChatOptions
	if maxTokens > 0 {
		opts = &ChatOptions{MaxTokens: Int(maxTokens)}
	}
	return w.client.Completion(ctx, model, prompt, opts)
}

// Response is the single-turn convenience: wraps the input in a user message
// and asks for a short chat completion.
func (w *Wrapper) Response(ctx context.Context, model, input string) (*Response, error) {
	messages := []Message{UserMessage(input)}
	return w.client.Chat(ctx, model, messages, &ChatOptions{MaxTokens: Int(defaultResponseMaxTokens)})
}

// Stream opens a streaming chat completion with default options.
func (w *Wrapper) Stream(ctx context.Context, model string, messages []Message) (*Stream, error) {
	return w.client.Stream(ctx, model, messages, nil)
}

// Models lists the model catalog.
func (w *Wrapper) Models(ctx context.Context) ([]Model, error) {
	return w.client.Models(ctx)
}

// Client exposes the underlying advanced client.
func (w *Wrapper) Client() *Client {
	return w.client
}
