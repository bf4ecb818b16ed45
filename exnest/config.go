package exnest

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Version is the SDK release version, sent in the User-Agent header.
const Version = "1.0.0"

// Defaults applied by Options when a field is left at its zero value.
const (
	DefaultBaseURL    = "https://api.exnest.app/v1"
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
)

// Options configures a Client. The zero value of every field except APIKey is
// replaced with its default at construction. Options are immutable once a
// Client holds them; Client.UpdateConfig swaps in a fresh copy.
type Options struct {
	// APIKey authenticates every request. Required.
	APIKey string `json:"apiKey"`
	// BaseURL is the API endpoint root.
	BaseURL string `json:"baseUrl"`
	// Timeout bounds each attempt of a call.
	Timeout time.Duration `json:"timeout"`
	// Retries is the number of additional attempts after the first. Nil
	// means the default; explicit zero disables retries.
	Retries *int `json:"retries,omitempty"`
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration `json:"retryDelay"`
	// RetryRateLimit makes HTTP 429 responses retryable.
	RetryRateLimit bool `json:"retryRateLimit"`
	// Debug enables request/response logging through Logger.
	Debug bool `json:"debug"`
	// Logger receives debug output. Defaults to a no-op logger, or a
	// development logger when Debug is set.
	Logger *zap.Logger `json:"-"`
}

// validate checks constraints that cannot be defaulted away.
func (o Options) validate() error {
	if o.APIKey == "" {
		return &ConfigurationError{SDKError: SDKError{Message: "API key is required"}}
	}
	if o.Timeout < 0 {
		return &ConfigurationError{SDKError: SDKError{Message: fmt.Sprintf("timeout must be >= 0, got %v", o.Timeout)}}
	}
	if o.Retries != nil && *o.Retries < 0 {
		return &ConfigurationError{SDKError: SDKError{Message: fmt.Sprintf("retries must be >= 0, got %d", *o.Retries)}}
	}
	if o.RetryDelay < 0 {
		return &ConfigurationError{SDKError: SDKError{Message: fmt.Sprintf("retry delay must be >= 0, got %v", o.RetryDelay)}}
	}
	return nil
}

// withDefaults returns a copy with zero-valued fields replaced by defaults.
func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retries == nil {
		retries := DefaultRetries
		o.Retries = &retries
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Logger == nil {
		if o.Debug {
			logger, err := zap.NewDevelopment()
			if err != nil {
				logger = zap.NewNop()
			}
			o.Logger = logger
		} else {
			o.Logger = zap.NewNop()
		}
	}
	return o
}

// masked returns a copy safe for display, with the API key reduced to its
// last four characters.
func (o Options) masked() Options {
	o.APIKey = maskKey(o.APIKey)
	o.Logger = nil
	return o
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// Update is a partial configuration change applied by Client.UpdateConfig.
// Nil fields keep their current value.
type Update struct {
	APIKey         *string
	BaseURL        *string
	Timeout        *time.Duration
	Retries        *int
	RetryDelay     *time.Duration
	RetryRateLimit *bool
	Debug          *bool
	Logger         *zap.Logger
}

// apply merges the update onto a copy of the current options.
func (u Update) apply(o Options) Options {
	if u.APIKey != nil {
		o.APIKey = *u.APIKey
	}
	if u.BaseURL != nil {
		o.BaseURL = *u.BaseURL
	}
	if u.Timeout != nil {
		o.Timeout = *u.Timeout
	}
	if u.Retries != nil {
		retries := *u.Retries
		o.Retries = &retries
	}
	if u.RetryDelay != nil {
		o.RetryDelay = *u.RetryDelay
	}
	if u.RetryRateLimit != nil {
		o.RetryRateLimit = *u.RetryRateLimit
	}
	if u.Debug != nil {
		o.Debug = *u.Debug
	}
	if u.Logger != nil {
		o.Logger = u.Logger
	}
	return o
}
