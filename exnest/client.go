package exnest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// API endpoint paths under the base URL.
const (
	pathChatCompletions = "/chat/completions"
	pathCompletions     = "/completions"
	pathModels          = "/models"
	pathDeepThink       = "/analysis/deep-think"
	pathDecision        = "/analysis/decision"
	pathDelegate        = "/analysis/delegate"
)

// completionRequest is the JSON body for chat, completion, and analysis
// calls. Chat-style calls set Messages, text completions set Prompt.
type completionRequest struct {
	Model            string         `json:"model"`
	Messages         []Message      `json:"messages,omitempty"`
	Prompt           string         `json:"prompt,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty"`
	MaxTokens        *int           `json:"max_tokens,omitempty"`
	Stream           bool           `json:"stream,omitempty"`
	OpenAICompatible *bool          `json:"openai_compatible,omitempty"`
	ExnestMetadata   *bool          `json:"exnest_metadata,omitempty"`
	Context          map[string]any `json:"context,omitempty"`
}

// Client is the configurable ExnestAI API client. All operations share one
// request pipeline: build body, apply the per-call timeout, retry on
// transient failures, and map the response envelope.
//
// A Client is safe for concurrent use. Calls do not interact; each captures
// the configuration snapshot current at its start.
type Client struct {
	transport *transport
	sleeper   Sleeper

	mu   sync.RWMutex
	opts *Options
}

// NewClient creates a Client. Zero-valued Options fields take their
// defaults; an empty API key or a negative numeric field fails with
// ConfigurationError.
func NewClient(opts Options) (*Client, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	resolved := opts.withDefaults()
	return &Client{
		transport: newTransport(),
		sleeper:   realSleeper{},
		opts:      &resolved,
	}, nil
}

// snapshot returns the current configuration. Callers hold the returned
// pointer for the duration of their call; UpdateConfig replaces the pointer
// rather than mutating it, so in-flight calls are unaffected.
func (c *Client) snapshot() *Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts
}

// UpdateConfig atomically replaces the configuration with a merged copy.
// Invalid merges (empty key, negative numerics) are rejected.
func (c *Client) UpdateConfig(u Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := u.apply(*c.opts)
	if err := merged.validate(); err != nil {
		return err
	}
	resolved := merged.withDefaults()
	c.opts = &resolved
	return nil
}

// Config returns a copy of the current configuration with the API key
// masked to its last four characters.
func (c *Client) Config() Options {
	return c.snapshot().masked()
}

// Chat sends a chat completion request.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, opts *ChatOptions) (*Response, error) {
	if err := validateMessages(messages); err != nil {
		return nil, err
	}
	body := buildCompletionRequest(model, messages, "", opts, nil)
	return c.execute(ctx, http.MethodPost, pathChatCompletions, body, opts)
}

// Completion sends a prompt-based text completion request.
func (c *Client) Completion(ctx context.Context, model, prompt string, opts *ChatOptions) (*Response, error) {
	body := buildCompletionRequest(model, nil, prompt, opts, nil)
	return c.execute(ctx, http.MethodPost, pathCompletions, body, opts)
}

// DeepThink runs the deep-reasoning analysis operation. The optional
// analysis context is passed through to the API unmodified.
func (c *Client) DeepThink(ctx context.Context, model string, messages []Message, analysisContext map[string]any) (*Response, error) {
	return c.analysis(ctx, pathDeepThink, model, messages, analysisContext)
}

// StructuredDecision runs the structured-decision analysis operation.
func (c *Client) StructuredDecision(ctx context.Context, model string, messages []Message, analysisContext map[string]any) (*Response, error) {
	return c.analysis(ctx, pathDecision, model, messages, analysisContext)
}

// Delegate runs the delegation analysis operation.
func (c *Client) Delegate(ctx context.Context, model string, messages []Message, analysisContext map[string]any) (*Response, error) {
	return c.analysis(ctx, pathDelegate, model, messages, analysisContext)
}

func (c *Client) analysis(ctx context.Context, path, model string, messages []Message, analysisContext map[string]any) (*Response, error) {
	if err := validateMessages(messages); err != nil {
		return nil, err
	}
	body := buildCompletionRequest(model, messages, "", nil, analysisContext)
	return c.execute(ctx, http.MethodPost, path, body, nil)
}

// Stream opens a streaming chat completion. Chunks arrive on the returned
// Stream until the server finishes or the consumer abandons it. Streaming
// calls bypass the retry policy.
func (c *Client) Stream(ctx context.Context, model string, messages []Message, opts *ChatOptions) (*Stream, error) {
	if err := validateMessages(messages); err != nil {
		return nil, err
	}
	body := buildCompletionRequest(model, messages, "", opts, nil)
	return c.openStream(ctx, pathChatCompletions, body)
}

// StreamCompletion opens a streaming text completion.
func (c *Client) StreamCompletion(ctx context.Context, model, prompt string, opts *ChatOptions) (*Stream, error) {
	body := buildCompletionRequest(model, nil, prompt, opts, nil)
	return c.openStream(ctx, pathCompletions, body)
}

// Models lists the model catalog.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	var models []Model
	if err := c.getJSON(ctx, pathModels, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// Model fetches a single catalog entry by name.
func (c *Client) Model(ctx context.Context, name string) (*Model, error) {
	var model Model
	if err := c.getJSON(ctx, pathModels+"/"+url.PathEscape(name), &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// ModelsByProvider lists catalog entries for one provider.
func (c *Client) ModelsByProvider(ctx context.Context, provider string) ([]Model, error) {
	var models []Model
	if err := c.getJSON(ctx, pathModels+"/provider/"+url.PathEscape(provider), &models); err != nil {
		return nil, err
	}
	return models, nil
}

// TestConnection probes the API with a minimal chat call. Transport failures
// are folded into an error-envelope Response rather than returned as errors,
// so the result is always inspectable.
func (c *Client) TestConnection(ctx context.Context) *Response {
	resp, err := c.Chat(ctx, "openai:gpt-3.5-turbo", []Message{UserMessage("Hello")}, &ChatOptions{MaxTokens: Int(5)})
	if err != nil {
		return &Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    "connection_error",
				Type:    "client_error",
				Message: err.Error(),
			},
		}
	}
	return resp
}

// HealthCheck reports reachability of the API together with the masked
// client configuration.
func (c *Client) HealthCheck(ctx context.Context) Health {
	status := "healthy"
	if c.TestConnection(ctx).Failed() {
		status = "unhealthy"
	}
	return Health{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Config:    c.Config(),
	}
}

// execute runs the shared non-streaming pipeline: marshal, retry, map.
func (c *Client) execute(ctx context.Context, method, path string, body *completionRequest, opts *ChatOptions) (*Response, error) {
	snapshot := c.snapshot()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &ConfigurationError{SDKError: SDKError{Message: "failed to encode request body", Cause: err}}
		}
	}

	timeout := snapshot.Timeout
	if opts != nil && opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	return c.policy(snapshot).run(func(attempt int) (*Response, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		raw, err := c.transport.roundTrip(attemptCtx, snapshot, method, path, payload)
		if err != nil {
			return nil, err
		}
		if raw.statusCode < 200 || raw.statusCode > 299 {
			return nil, errorForStatus(raw)
		}
		return mapResponse(raw), nil
	})
}

// getJSON runs the retry pipeline for endpoints that return a bare JSON
// value (the model catalog) rather than the response envelope.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	snapshot := c.snapshot()

	_, err := c.policy(snapshot).run(func(attempt int) (*Response, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, snapshot.Timeout)
		defer cancel()

		raw, err := c.transport.roundTrip(attemptCtx, snapshot, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if raw.statusCode < 200 || raw.statusCode > 299 {
			return nil, errorForStatus(raw)
		}
		if err := json.Unmarshal(raw.body, out); err != nil {
			return nil, &ParseError{SDKError: SDKError{
				Message: fmt.Sprintf("failed to parse %s response", path),
				Cause:   err,
			}}
		}
		return nil, nil
	})
	return err
}

// openStream runs the streaming half of the pipeline: single attempt, no
// retry, chunks delivered through a consumer goroutine.
func (c *Client) openStream(ctx context.Context, path string, body *completionRequest) (*Stream, error) {
	snapshot := c.snapshot()

	body.Stream = true
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ConfigurationError{SDKError: SDKError{Message: "failed to encode request body", Cause: err}}
	}

	resp, err := c.transport.openStream(ctx, snapshot, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		chunks: make(chan StreamChunk, 16),
		body:   resp.Body,
	}
	go s.consume(ctx, resp.Body, snapshot.Logger, snapshot.Debug)
	return s, nil
}

func (c *Client) policy(opts *Options) retryPolicy {
	return retryPolicy{
		maxAttempts:    *opts.Retries + 1,
		delay:          opts.RetryDelay,
		retryRateLimit: opts.RetryRateLimit,
		sleeper:        c.sleeper,
		logger:         opts.Logger,
		debug:          opts.Debug,
	}
}

// mapResponse decodes a received 2xx body into the response envelope. A body
// that is not valid JSON becomes a parse-error Response, not a raised error:
// a response was received, so the failure is API-level data.
func mapResponse(raw *rawResponse) *Response {
	var resp Response
	if err := json.Unmarshal(raw.body, &resp); err != nil {
		return &Response{
			Success:    false,
			StatusCode: raw.statusCode,
			Error: &ErrorDetail{
				Code:    "parse_error",
				Message: fmt.Sprintf("failed to parse response body: %v", err),
			},
		}
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = raw.statusCode
	}
	return &resp
}

func buildCompletionRequest(model string, messages []Message, prompt string, opts *ChatOptions, analysisContext map[string]any) *completionRequest {
	req := &completionRequest{
		Model:    model,
		Messages: messages,
		Prompt:   prompt,
		Context:  analysisContext,
	}
	if opts != nil {
		req.Temperature = opts.Temperature
		req.MaxTokens = opts.MaxTokens
		req.Stream = opts.Stream
		req.OpenAICompatible = opts.OpenAICompatible
		req.ExnestMetadata = opts.ExnestMetadata
	}
	return req
}

func validateMessages(messages []Message) error {
	for _, m := range messages {
		if err := m.validate(); err != nil {
			return err
		}
	}
	return nil
}
