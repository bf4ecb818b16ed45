// Package exnest provides a Go client SDK for the ExnestAI completion API,
// covering chat and text completions, SSE streaming, and the model catalog.
//
// # Quick Start
//
// The Wrapper facade needs nothing but an API key:
//
//	ex, _ := exnest.NewWrapper(os.Getenv("EXNEST_API_KEY"))
//	resp, _ := ex.Chat(ctx, "gpt-4o-mini", []exnest.Message{
//	    exnest.UserMessage("Hello, how are you?"),
//	})
//	fmt.Println(resp.Text())
//
// The Client facade exposes the full configuration surface:
//
//	client, _ := exnest.NewClient(exnest.Options{
//	    APIKey:     "sk-...",
//	    Timeout:    15 * time.Second,
//	    Retries:    exnest.Int(3),
//	    RetryDelay: time.Second,
//	    Debug:      true,
//	})
//	resp, err := client.Chat(ctx, "gemini-2.0-flash-exp", messages, &exnest.ChatOptions{
//	    Temperature: exnest.Float(0.7),
//	    MaxTokens:   exnest.Int(500),
//	})
//
// # Retries
//
// Every non-streaming call runs through a retry policy: connection failures,
// timeouts, and HTTP 5xx are retried up to Options.Retries additional
// attempts with a fixed Options.RetryDelay between them. HTTP 4xx is never
// retried; 429 is retried only when Options.RetryRateLimit is set.
//
// # Streaming
//
// Stream and StreamCompletion return a Stream whose channel yields one
// StreamChunk per SSE event until the server emits the [DONE] sentinel or
// closes the connection. Streams are not retried: a mid-stream failure ends
// the sequence and is reported by Stream.Err. Cancel the context or call
// Stream.Close to abandon a stream; the underlying connection is released on
// every exit path.
//
// # Errors
//
// API-level failures (a well-formed envelope with success=false) are returned
// as data on Response, not as errors. Transport-level failures surface as
// typed errors: ConfigurationError, NetworkError, TimeoutError, AbortError,
// APIError, RateLimitError, ServerError. All support errors.As and unwrap to
// their cause.
package exnest
