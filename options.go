// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"net/http"
	"time"
)

// Client configuration options using the functional options pattern

// Username sets the OAuth2 client-credentials username
func Username(username string) func(*Client) {
	return func(c *Client) {
		c.username = username
	}
}

// Password sets the OAuth2 client-credentials password
func Password(password string) func(*Client) {
	return func(c *Client) {
		c.password = password
	}
}

// Insecure enables or disables TLS certificate verification skipping (default: false)
//
// WARNING: Skipping certificate verification makes the connection vulnerable
// to Man-in-the-Middle attacks. Only use this in testing environments where
// security is not a concern.
//
// Example:
//
//	client, _ := nsp.NewClient("https://nsp.example.com",
//	    nsp.Username("admin"),
//	    nsp.Password("secret"),
//	    nsp.Insecure(true))  // Insecure, use only for testing
func Insecure(insecure bool) func(*Client) {
	return func(c *Client) {
		c.Insecure = insecure
	}
}

// RequestTimeout sets the per-request timeout (default: 30s)
func RequestTimeout(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.RequestTimeout = duration
	}
}

// MaxRetries sets the maximum number of retry attempts for transient errors (default: 3)
func MaxRetries(retries int) func(*Client) {
	return func(c *Client) {
		c.MaxRetries = retries
	}
}

// BackoffMinDelay sets the minimum backoff delay (default: 1s)
func BackoffMinDelay(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMinDelay = duration
	}
}

// BackoffMaxDelay sets the maximum backoff delay (default: 60s)
func BackoffMaxDelay(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMaxDelay = duration
	}
}

// BackoffDelayFactor sets the backoff multiplication factor (default: 2.0)
func BackoffDelayFactor(factor float64) func(*Client) {
	return func(c *Client) {
		c.BackoffDelayFactor = factor
	}
}

// HttpClient injects a custom HTTP client
//
// When set, the client is used as-is and the Insecure option has no effect.
// This is mainly useful for tests and for environments that require custom
// transports (proxies, client certificates).
func HttpClient(httpClient *http.Client) func(*Client) {
	return func(c *Client) {
		c.HttpClient = httpClient
	}
}

// WithLogger configures a custom logger for the client
//
// By default, the client uses NoOpLogger which discards all log messages.
// Use this option to enable logging with DefaultLogger or a custom logger.
//
// All JSON content logged at Debug level is automatically redacted to remove
// sensitive data (passwords, secrets, keys, tokens).
//
// Example (DefaultLogger):
//
//	logger := nsp.NewDefaultLogger(nsp.LogLevelInfo)
//	client, _ := nsp.NewClient("https://nsp.example.com",
//	    nsp.Username("admin"),
//	    nsp.Password("secret"),
//	    nsp.WithLogger(logger))
//
// Example (Custom Logger):
//
//	type SlogAdapter struct {
//	    logger *slog.Logger
//	}
//
//	func (s *SlogAdapter) Debug(ctx context.Context, msg string, keysAndValues ...any) {
//	    s.logger.DebugContext(ctx, msg, keysAndValues...)
//	}
//	// ... implement Info, Warn, Error (all with ctx context.Context as first parameter)
//
//	client, _ := nsp.NewClient("https://nsp.example.com",
//	    nsp.WithLogger(&SlogAdapter{logger: slog.Default()}))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrettyPrintLogs enables/disables JSON pretty printing in logs
//
// When enabled, JSON content in debug logs is formatted for better
// readability. This only affects Debug-level log output.
func WithPrettyPrintLogs(enabled bool) func(*Client) {
	return func(c *Client) {
		c.prettyPrintLogs = enabled
	}
}

// Request modifiers for individual operations

// Timeout returns a request modifier that sets a custom timeout for the operation.
//
// This timeout takes precedence over the context deadline and the client's
// RequestTimeout. Use this to set operation-specific timeouts that differ
// from the client's default.
//
// The timeout priority model is:
//  1. Request-specific timeout (this modifier) - highest priority
//  2. Context deadline (if already set) - medium priority
//  3. Client.RequestTimeout - fallback default
//
// Example:
//
//	// Synchronous workflow execution with a 5 minute budget
//	res, err := client.Post(ctx, "/wfm/api/v1/execution/synchronous", body,
//	    nsp.Timeout(5*time.Minute))
func Timeout(duration time.Duration) func(*Req) {
	return func(req *Req) {
		req.Timeout = duration
	}
}

// Accept returns a request modifier that sets the Accept header.
//
// Common NSP media types:
//   - application/json (default)
//   - application/yang-data+json (RESTCONF YANG JSON)
//
// Example:
//
//	res, err := client.Get(ctx, "/restconf/data/ibn:ibn/intent=cid001,iplink",
//	    nsp.Accept("application/yang-data+json"))
func Accept(mediaType string) func(*Req) {
	return func(req *Req) {
		req.Header.Set("Accept", mediaType)
	}
}

// ContentType returns a request modifier that sets the Content-Type header.
//
// When not set, the Content-Type is inferred from the body: valid JSON is
// sent as application/json, everything else as text/plain.
//
// Example:
//
//	res, err := client.Put(ctx, "/wfm/api/v1/workflow/"+id+"/definition", yaml,
//	    nsp.ContentType("text/plain"))
func ContentType(mediaType string) func(*Req) {
	return func(req *Req) {
		req.Header.Set("Content-Type", mediaType)
	}
}

// Header returns a request modifier that sets an arbitrary request header.
func Header(name, value string) func(*Req) {
	return func(req *Req) {
		req.Header.Set(name, value)
	}
}

// NoAuth returns a request modifier that disables Bearer token injection.
//
// Used internally for the token endpoints; exposed for unauthenticated
// endpoints such as health probes.
func NoAuth() func(*Req) {
	return func(req *Req) {
		req.noAuth = true
	}
}

// NoLogPayload returns a request modifier that suppresses payload logging.
//
// Useful for large or binary payloads that should not be written to debug
// logs (file uploads).
func NoLogPayload() func(*Req) {
	return func(req *Req) {
		req.noLogPayload = true
	}
}
