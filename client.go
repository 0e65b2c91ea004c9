// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Default client configuration values
const (
	DefaultMaxRetries         = 3
	DefaultBackoffMinDelay    = 1 * time.Second
	DefaultBackoffMaxDelay    = 60 * time.Second
	DefaultBackoffDelayFactor = 2
	DefaultRequestTimeout     = 30 * time.Second
	DefaultVerifyCertificate  = true
	DefaultPrettyPrintLogs    = true
)

// Token lifecycle configuration
const (
	// AuthTokenPath is the OAuth2 token endpoint of the NSP REST gateway
	AuthTokenPath = "/rest-gateway/rest/api/v1/auth/token"

	// AuthRevokePath is the OAuth2 token revocation endpoint
	AuthRevokePath = "/rest-gateway/rest/api/v1/auth/revocation"

	// DefaultTokenLifetime is assumed when the token response carries no expires_in
	DefaultTokenLifetime = 1 * time.Hour

	// TokenRefreshMargin is subtracted from the token lifetime so tokens are
	// refreshed before the server-side expiry
	TokenRefreshMargin = 60 * time.Second
)

// Security limits for JSON processing and logging
const (
	MaxJSONSizeForLogging = 1 * 1024 * 1024 // 1MB limit to prevent ReDoS attacks
	MaxSensitiveFields    = 1000            // Max redaction operations to prevent DoS
)

// Logging message constants
const (
	JSONTooLargeMessage     = "[JSON TOO LARGE FOR LOGGING]"
	JSONTooManySensitiveMsg = "[JSON CONTAINS TOO MANY SENSITIVE FIELDS]"
)

// defaultRedactionPatterns contains regex patterns for redacting sensitive data in logs
var defaultRedactionPatterns = []*regexp.Regexp{
	// JSON field patterns
	regexp.MustCompile(`"password"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`"secret"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`"key"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`"access_token"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`"token"\s*:\s*"[^"]*"`),
	regexp.MustCompile(`"auth"\s*:\s*"[^"]*"`),
}

// Client represents an HTTP client connection to an NSP controller
type Client struct {
	// HttpClient is the underlying HTTP transport
	HttpClient *http.Client

	// Url is the base URL of the NSP controller, e.g. "https://nsp.example.com"
	Url string

	// Connection parameters
	username string // unexported for security
	password string // unexported for security

	// TLS options
	Insecure bool

	// Timeout configuration
	RequestTimeout time.Duration

	// Retry configuration
	MaxRetries         int
	BackoffMinDelay    time.Duration
	BackoffMaxDelay    time.Duration
	BackoffDelayFactor float64

	// Token state, guarded by authMu
	authMu      sync.Mutex
	token       string
	tokenExpiry time.Time

	// Logging configuration
	logger            Logger
	prettyPrintLogs   bool
	redactionPatterns []*regexp.Regexp
}

// NewClient creates a new NSP client with the specified base URL and options
//
// The client does NOT authenticate immediately. The OAuth2 token is acquired
// automatically on the first authenticated request (lazy login). Use Login()
// to explicitly acquire a token if needed.
//
// Example:
//
//	client, err := nsp.NewClient(
//	    "https://nsp.example.com",
//	    nsp.Username("admin"),
//	    nsp.Password("secret"),
//	    nsp.Insecure(true), // testing only
//	    nsp.MaxRetries(5),
//	)
//	if err != nil {
//	    log.Fatal(err)  // Configuration error
//	}
//	defer client.Logout(context.Background())
//
//	// Auto-login on first use
//	res, err := client.Get(ctx, "/restconf/data/ibn:ibn")
//
// Returns a configured Client or an error if configuration validation fails.
func NewClient(base string, opts ...func(*Client)) (*Client, error) {
	// Create client with default values
	client := &Client{
		Url:                strings.TrimSuffix(base, "/"),
		Insecure:           !DefaultVerifyCertificate,
		RequestTimeout:     DefaultRequestTimeout,
		MaxRetries:         DefaultMaxRetries,
		BackoffMinDelay:    DefaultBackoffMinDelay,
		BackoffMaxDelay:    DefaultBackoffMaxDelay,
		BackoffDelayFactor: DefaultBackoffDelayFactor,
		logger:             &NoOpLogger{},
		prettyPrintLogs:    DefaultPrettyPrintLogs,
		redactionPatterns:  defaultRedactionPatterns,
	}

	// Apply functional options
	for _, opt := range opts {
		opt(client)
	}

	// Validate configuration
	if err := client.validateConfig(); err != nil {
		return nil, err
	}

	// Build HTTP transport unless one was injected via HttpClient option
	if client.HttpClient == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: client.Insecure, //nolint:gosec // G402: opt-in via Insecure()
		}
		client.HttpClient = &http.Client{Transport: tr}
	}

	// Log client creation (login happens lazily)
	client.logger.Info(context.Background(), "NSP client created",
		"url", client.Url,
		"login", "lazy")

	return client, nil
}

// Login acquires a new OAuth2 access token using the client-credentials grant.
//
// The NSP token endpoint expects HTTP Basic authentication with the client
// credentials and a JSON body declaring the grant type. The acquired token is
// cached and injected as a Bearer token into subsequent requests until it
// expires.
//
// Login is usually not called directly: authenticated requests trigger it
// automatically when no valid token is cached.
func (c *Client) Login(ctx context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.login(ctx)
}

// login acquires a token. Caller must hold authMu.
func (c *Client) login(ctx context.Context) error {
	c.logger.Debug(ctx, "requesting OAuth2 token",
		"url", c.Url,
		"grant_type", "client_credentials")

	req := NewReq("POST", AuthTokenPath, `{"grant_type": "client_credentials"}`,
		NoAuth(),
		Header("Cache-Control", "no-cache"),
	)
	req.basicAuth = true

	res, err := c.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("login: token request failed: %w", err)
	}

	token := res.Get("access_token").String()
	if token == "" {
		c.logger.Error(ctx, "token response without access_token",
			"url", c.Url,
			"status", res.StatusCode)
		return fmt.Errorf("login: no access_token in response")
	}

	lifetime := DefaultTokenLifetime
	if expiresIn := res.Get("expires_in").Int(); expiresIn > 0 {
		lifetime = time.Duration(expiresIn) * time.Second
	}
	if lifetime > TokenRefreshMargin {
		lifetime -= TokenRefreshMargin
	}

	c.token = token
	c.tokenExpiry = time.Now().Add(lifetime)

	c.logger.Info(ctx, "OAuth2 token acquired",
		"url", c.Url,
		"expiry", c.tokenExpiry.Format(time.RFC3339))

	return nil
}

// Authenticate ensures a valid access token is cached (expiry-aware reuse).
//
// While the cached token is valid this is a cheap no-op. Concurrent callers
// are serialized so a missing or expired token triggers exactly one login.
func (c *Client) Authenticate(ctx context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}
	return c.login(ctx)
}

// Logout revokes the cached access token.
//
// Revocation is best-effort: a failed revocation request is logged as a
// warning but never returned as an error. The cached token state is cleared
// regardless of the outcome so the client can be reused (the next request
// acquires a fresh token).
func (c *Client) Logout(ctx context.Context) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	if c.token == "" {
		return nil
	}

	form := url.Values{}
	form.Set("token", c.token)
	form.Set("token_type_hint", "token")

	req := NewReq("POST", AuthRevokePath, form.Encode(),
		NoAuth(),
		ContentType("application/x-www-form-urlencoded"),
	)
	req.basicAuth = true

	if _, err := c.Do(ctx, req); err != nil {
		c.logger.Warn(ctx, "token revocation failed",
			"url", c.Url,
			"error", err.Error())
	} else {
		c.logger.Info(ctx, "OAuth2 token revoked",
			"url", c.Url)
	}

	c.token = ""
	c.tokenExpiry = time.Time{}
	return nil
}

// invalidateToken drops the cached token after a 401 so the next
// authenticated request logs in again.
func (c *Client) invalidateToken(ctx context.Context) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	if c.token != "" {
		c.logger.Debug(ctx, "cached token invalidated",
			"url", c.Url)
	}
	c.token = ""
	c.tokenExpiry = time.Time{}
}

// bearerToken returns the cached token, or "" if none is cached.
func (c *Client) bearerToken() string {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	return c.token
}

// HasCredentials returns true if credentials are configured
//
// This method only indicates if credentials exist without exposing
// the actual values.
func (c *Client) HasCredentials() bool {
	return c.username != "" || c.password != ""
}

// Backoff calculates the backoff delay for retry attempt using exponential backoff with jitter
//
// The formula is: delay = min(minDelay * (factor ^ attempt) + jitter, maxDelay)
// where jitter is a cryptographically secure random value in [0, delay * 0.1].
//
// If crypto/rand fails, falls back to timestamp-based jitter to prevent
// thundering herd. Timestamp-based jitter is not cryptographically secure but
// provides sufficient randomness for retry dispersal.
//
// Parameters:
//   - attempt: The retry attempt number (0-indexed)
//
// Returns the duration to wait before retrying.
func (c *Client) Backoff(attempt int) time.Duration {
	// Calculate base delay: minDelay * (factor ^ attempt)
	delay := float64(c.BackoffMinDelay) * math.Pow(c.BackoffDelayFactor, float64(attempt))

	// Check for overflow and cap at max delay
	if math.IsInf(delay, 1) || delay > float64(c.BackoffMaxDelay) {
		delay = float64(c.BackoffMaxDelay)
	}

	baseDelay := delay // Store base delay for logging

	// Add cryptographically secure jitter (0-10% of delay) to prevent thundering herd
	jitterMax := int64(delay * 0.1)
	var jitterVal int64
	if jitterMax > 0 {
		var jitterBytes [8]byte
		if _, err := rand.Read(jitterBytes[:]); err == nil {
			// Mask off sign bit to ensure positive value within int64 range
			//nolint:gosec // G115: False positive - explicitly masked to prevent overflow
			jitterVal = int64(binary.BigEndian.Uint64(jitterBytes[:]) & 0x7FFFFFFFFFFFFFFF)
			jitterVal = jitterVal % jitterMax
			delay += float64(jitterVal)
		} else {
			// Fallback to timestamp-based jitter if crypto/rand fails
			timestamp := time.Now().UnixNano()
			jitterVal = (timestamp%jitterMax + jitterMax) % jitterMax // Ensure positive
			delay += float64(jitterVal)

			c.logger.Warn(context.Background(), "crypto/rand failed, using timestamp-based jitter",
				"error", err.Error(),
				"attempt", attempt,
				"jitter_ms", time.Duration(jitterVal).Milliseconds())
		}
	}

	finalDelay := time.Duration(delay)

	// Log backoff calculation at Debug level
	c.logger.Debug(context.Background(), "Backoff calculated",
		"attempt", attempt,
		"base_delay_ms", time.Duration(baseDelay).Milliseconds(),
		"jitter_ms", time.Duration(jitterVal).Milliseconds(),
		"final_delay_ms", finalDelay.Milliseconds())

	return finalDelay
}

// prepareJSONForLogging redacts sensitive data and formats JSON for logging
//
// This method performs security checks and data sanitization:
//  1. Validates JSON size to prevent ReDoS attacks (max 1MB)
//  2. Checks sensitive field count to prevent DoS (max 1000 fields)
//  3. Redacts sensitive data (passwords, secrets, keys, tokens)
//  4. Pretty-prints JSON if prettyPrintLogs is enabled
//
// Returns the processed JSON string safe for logging.
func (c *Client) prepareJSONForLogging(jsonStr string) string {
	// Check JSON size limit to prevent ReDoS attacks
	if len(jsonStr) > MaxJSONSizeForLogging {
		return JSONTooLargeMessage
	}

	// Count sensitive fields before processing to prevent DoS
	// This check prevents excessive regex operations on malicious input
	sensitiveCount := strings.Count(jsonStr, `"password"`) +
		strings.Count(jsonStr, `"secret"`) +
		strings.Count(jsonStr, `"key"`) +
		strings.Count(jsonStr, `"access_token"`) +
		strings.Count(jsonStr, `"token"`) +
		strings.Count(jsonStr, `"auth"`)

	if sensitiveCount > MaxSensitiveFields {
		c.logger.Warn(context.Background(), "Too many sensitive fields detected",
			"count", sensitiveCount,
			"max", MaxSensitiveFields)
		return JSONTooManySensitiveMsg
	}

	// Redact sensitive data first
	redacted := c.redactSensitiveData(jsonStr)

	// Pretty-print JSON if enabled
	if c.prettyPrintLogs {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(redacted), "", "  "); err == nil {
			return buf.String()
		} else {
			// Fallback: if indent fails (e.g., invalid JSON), return redacted as-is
			c.logger.Debug(context.Background(), "JSON pretty-print failed, using raw redacted output",
				"error", err.Error())
		}
	}

	return redacted
}

// redactSensitiveData replaces sensitive data in JSON with [REDACTED]
//
// Redacts common sensitive types in JSON fields:
//   - "password": "value" fields
//   - "secret": "value" fields
//   - "key": "value" fields
//   - "access_token": "value" fields
//   - "token": "value" fields
//   - "auth": "value" fields
//
// Handles flexible whitespace around colons (RFC 8259 compliant).
//
// Returns the redacted JSON string.
func (c *Client) redactSensitiveData(json string) string {
	replacements := []string{
		`"password":"[REDACTED]"`,
		`"secret":"[REDACTED]"`,
		`"key":"[REDACTED]"`,
		`"access_token":"[REDACTED]"`,
		`"token":"[REDACTED]"`,
		`"auth":"[REDACTED]"`,
	}

	result := json
	for i, pattern := range c.redactionPatterns {
		if i < len(replacements) {
			result = pattern.ReplaceAllString(result, replacements[i])
		}
	}

	return result
}

// validateConfig validates client configuration before use
//
// Validates:
//   - Base URL parses and carries an http/https scheme
//   - Positive timeout (RequestTimeout > 0)
//   - Positive retry params (MaxRetries >= 0, BackoffMinDelay > 0, BackoffMaxDelay > BackoffMinDelay)
//   - BackoffDelayFactor >= 1.0
//
// Returns an error if validation fails.
func (c *Client) validateConfig() error {
	// Validate base URL
	if strings.TrimSpace(c.Url) == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(c.Url)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL scheme: %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL has no host: %s", c.Url)
	}

	// Validate timeout is positive
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %v", c.RequestTimeout)
	}

	// Validate retry parameters
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got: %d", c.MaxRetries)
	}
	if c.BackoffMinDelay <= 0 {
		return fmt.Errorf("backoff min delay must be positive, got: %v", c.BackoffMinDelay)
	}
	if c.BackoffMaxDelay <= c.BackoffMinDelay {
		return fmt.Errorf("backoff max delay (%v) must be greater than min delay (%v)",
			c.BackoffMaxDelay, c.BackoffMinDelay)
	}
	if c.BackoffDelayFactor < 1.0 {
		return fmt.Errorf("backoff delay factor must be >= 1.0, got: %f", c.BackoffDelayFactor)
	}

	// Warn on insecure TLS configuration
	if u.Scheme == "https" && c.Insecure {
		c.logger.Warn(context.Background(), "Insecure enabled - TLS certificate verification disabled",
			"url", c.Url,
			"security_risk", "Man-in-the-Middle attacks possible",
			"recommendation", "Use only in testing environments")
	}

	// Warn if TLS is not used at all
	if u.Scheme == "http" {
		c.logger.Warn(context.Background(), "plain HTTP base URL - connection is not encrypted",
			"url", c.Url,
			"security_risk", "Credentials and tokens transmitted in clear text",
			"recommendation", "Use https for production use")
	}

	// Warn if credentials are missing (not an error, the gateway will reject the login)
	if !c.HasCredentials() {
		c.logger.Warn(context.Background(), "No credentials configured",
			"url", c.Url,
			"message", "controller will reject token requests")
	}

	return nil
}
