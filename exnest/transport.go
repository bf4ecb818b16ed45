package exnest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userAgent = "ExnestAI-Go-Client/" + Version

// newHTTPClient builds the shared HTTP client. The overall deadline is left
// to the per-call context so that streaming responses can outlive any fixed
// request timeout.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second, // connect timeout
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// rawResponse is a completed transport-level exchange: status and body, with
// no interpretation of the status code.
type rawResponse struct {
	statusCode int
	header     http.Header
	body       []byte
}

// transport issues single HTTP exchanges against the API.
type transport struct {
	http *http.Client
}

func newTransport() *transport {
	return &transport{http: newHTTPClient()}
}

// newRequest builds an authenticated JSON request for the given snapshot.
func (t *transport) newRequest(ctx context.Context, opts *Options, method, path string, payload []byte) (*http.Request, string, error) {
	url := strings.TrimRight(opts.BaseURL, "/") + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, "", &NetworkError{SDKError: SDKError{Message: "failed to create request", Cause: err}}
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+opts.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	return req, requestID, nil
}

// roundTrip performs one request/response exchange. A connection-level
// failure returns NetworkError; an exceeded context deadline returns
// TimeoutError. Any received response, whatever its status, is returned raw.
func (t *transport) roundTrip(ctx context.Context, opts *Options, method, path string, payload []byte) (*rawResponse, error) {
	req, requestID, err := t.newRequest(ctx, opts, method, path, payload)
	if err != nil {
		return nil, err
	}

	if opts.Debug {
		opts.Logger.Debug("sending request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
		)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	if opts.Debug {
		opts.Logger.Debug("received response",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Int("body_bytes", len(body)),
		)
	}

	return &rawResponse{statusCode: resp.StatusCode, header: resp.Header, body: body}, nil
}

// openStream performs the request half of a streaming exchange and hands the
// open response to the caller. Non-2xx responses are drained into a typed
// error; the body is only left open on the success path.
func (t *transport) openStream(ctx context.Context, opts *Options, method, path string, payload []byte) (*http.Response, error) {
	req, requestID, err := t.newRequest(ctx, opts, method, path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	if opts.Debug {
		opts.Logger.Debug("opening stream",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
		)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, errorFromRawResponse(resp)
	}

	return resp, nil
}

// classifyTransportError separates deadline expiry and caller cancellation
// from other connection failures.
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{SDKError: SDKError{Message: "request timed out", Cause: err}}
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &AbortError{SDKError: SDKError{Message: "request cancelled", Cause: err}}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{SDKError: SDKError{Message: "request timed out", Cause: err}}
	}
	return &NetworkError{SDKError: SDKError{Message: "request failed", Cause: err}}
}

// errorForStatus maps a received non-2xx rawResponse to a typed error,
// extracting the envelope error message when the body carries one.
func errorForStatus(raw *rawResponse) error {
	message, code := extractErrorDetail(raw.body)
	if message == "" {
		message = fmt.Sprintf("HTTP %d: %s", raw.statusCode, string(raw.body))
	}
	return errorFromStatusCode(raw.statusCode, message, code, parseRetryAfter(raw.header.Get("Retry-After")))
}

// errorFromRawResponse reads and maps an open non-2xx response.
func errorFromRawResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{SDKError: SDKError{Message: "failed to read error response body", Cause: err}}
	}
	return errorForStatus(&rawResponse{statusCode: resp.StatusCode, header: resp.Header, body: body})
}

// extractErrorDetail pulls message and code out of an error envelope body.
func extractErrorDetail(body []byte) (message, code string) {
	var envelope struct {
		Message string       `json:"message"`
		Error   *ErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", ""
	}
	if envelope.Error != nil {
		message = envelope.Error.Message
		code = envelope.Error.Code
		if code == "" {
			code = envelope.Error.Type
		}
	}
	if message == "" {
		message = envelope.Message
	}
	return message, code
}

// parseRetryAfter parses a Retry-After header value. Supports both seconds
// and HTTP-date formats.
func parseRetryAfter(value string) *float64 {
	if value == "" {
		return nil
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return &seconds
	}

	if t, err := time.Parse(time.RFC1123, value); err == nil {
		seconds := time.Until(t).Seconds()
		if seconds < 0 {
			seconds = 0
		}
		return &seconds
	}

	return nil
}

// sseEvent is a single Server-Sent Event.
type sseEvent struct {
	Event string
	Data  string
}

// sseReader parses SSE streams from an io.Reader.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	return &sseReader{scanner: scanner}
}

// Next returns the next SSE event. Returns io.EOF when the stream ends, and
// an event with Event="[DONE]" for the termination sentinel, which must not
// be parsed as JSON.
func (r *sseReader) Next() (*sseEvent, error) {
	var event sseEvent
	var dataLines []string
	hasData := false

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Blank line = event boundary
		if line == "" {
			if hasData {
				event.Data = strings.Join(dataLines, "\n")
				return &event, nil
			}
			continue
		}

		// Comment lines (starting with :) are ignored
		if strings.HasPrefix(line, ":") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			event.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimPrefix(line, "data:")
			data = strings.TrimPrefix(data, " ") // trim optional single leading space
			if data == "[DONE]" {
				return &sseEvent{Event: "[DONE]", Data: "[DONE]"}, nil
			}
			dataLines = append(dataLines, data)
			hasData = true
		case strings.HasPrefix(line, "retry:"):
			continue
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Data accumulated when the stream ended without a final blank line
	if hasData {
		event.Data = strings.Join(dataLines, "\n")
		return &event, nil
	}

	return nil, io.EOF
}
