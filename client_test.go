// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestNewClientValidation tests client configuration validation
func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name        string
		base        string
		opts        []func(*Client)
		wantErrMsg  string
		description string
	}{
		{
			name:        "empty base URL",
			base:        "",
			opts:        nil,
			wantErrMsg:  "base URL cannot be empty",
			description: "Empty base URL should fail validation",
		},
		{
			name:        "whitespace base URL",
			base:        "   ",
			opts:        nil,
			wantErrMsg:  "base URL cannot be empty",
			description: "Whitespace-only base URL should fail validation",
		},
		{
			name:        "invalid scheme",
			base:        "ftp://nsp.example.com",
			opts:        nil,
			wantErrMsg:  "invalid base URL scheme",
			description: "Non-HTTP scheme should fail validation",
		},
		{
			name:        "missing host",
			base:        "https://",
			opts:        nil,
			wantErrMsg:  "base URL has no host",
			description: "Base URL without host should fail validation",
		},
		{
			name: "negative request timeout",
			base: "https://nsp.example.com",
			opts: []func(*Client){
				RequestTimeout(-1 * time.Second),
			},
			wantErrMsg:  "request timeout must be positive",
			description: "Negative request timeout should fail validation",
		},
		{
			name: "zero request timeout",
			base: "https://nsp.example.com",
			opts: []func(*Client){
				RequestTimeout(0),
			},
			wantErrMsg:  "request timeout must be positive",
			description: "Zero request timeout should fail validation",
		},
		{
			name: "negative max retries",
			base: "https://nsp.example.com",
			opts: []func(*Client){
				MaxRetries(-1),
			},
			wantErrMsg:  "max retries must be non-negative",
			description: "Negative max retries should fail validation",
		},
		{
			name: "zero backoff min delay",
			base: "https://nsp.example.com",
			opts: []func(*Client){
				BackoffMinDelay(0),
			},
			wantErrMsg:  "backoff min delay must be positive",
			description: "Zero backoff min delay should fail validation",
		},
		{
			name: "max delay less than min delay",
			base: "https://nsp.example.com",
			opts: []func(*Client){
				BackoffMinDelay(10 * time.Second),
				BackoffMaxDelay(5 * time.Second),
			},
			wantErrMsg:  "backoff max delay",
			description: "Max delay < min delay should fail validation",
		},
		{
			name: "invalid backoff factor",
			base: "https://nsp.example.com",
			opts: []func(*Client){
				BackoffDelayFactor(0.5),
			},
			wantErrMsg:  "backoff delay factor must be >= 1.0",
			description: "Backoff factor < 1.0 should fail validation",
		},
		{
			name:        "valid configuration",
			base:        "https://nsp.example.com",
			opts:        []func(*Client){Username("admin"), Password("secret")},
			wantErrMsg:  "",
			description: "Valid configuration should pass",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.base, tt.opts...)
			if tt.wantErrMsg == "" {
				if err != nil {
					t.Errorf("NewClient() error = %v, want nil (%s)", err, tt.description)
				}
				return
			}
			if err == nil {
				t.Errorf("NewClient() error = nil, want error containing %q (%s)", tt.wantErrMsg, tt.description)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrMsg) {
				t.Errorf("NewClient() error = %v, want error containing %q", err, tt.wantErrMsg)
			}
		})
	}
}

// TestNewClientDefaults verifies default configuration values
func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient("https://nsp.example.com",
		Username("admin"),
		Password("secret"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if client.Url != "https://nsp.example.com" {
		t.Errorf("Url = %q, want %q", client.Url, "https://nsp.example.com")
	}
	if client.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", client.MaxRetries, DefaultMaxRetries)
	}
	if client.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", client.RequestTimeout, DefaultRequestTimeout)
	}
	if client.BackoffMinDelay != DefaultBackoffMinDelay {
		t.Errorf("BackoffMinDelay = %v, want %v", client.BackoffMinDelay, DefaultBackoffMinDelay)
	}
	if client.Insecure {
		t.Error("Insecure = true, want false by default")
	}
	if !client.HasCredentials() {
		t.Error("HasCredentials() = false, want true")
	}
}

// TestNewClientTrailingSlash verifies base URL normalization
func TestNewClientTrailingSlash(t *testing.T) {
	client, err := NewClient("https://nsp.example.com/",
		Username("admin"),
		Password("secret"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.Url != "https://nsp.example.com" {
		t.Errorf("Url = %q, want trailing slash removed", client.Url)
	}
}

// TestLogin verifies OAuth2 token acquisition and caching
func TestLogin(t *testing.T) {
	logins := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != AuthTokenPath {
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != "POST" {
			t.Errorf("token request method = %s, want POST", r.Method)
		}
		username, password, ok := r.BasicAuth()
		if !ok || username != "admin" || password != "secret" {
			t.Errorf("token request basic auth = %q/%q/%v, want admin/secret", username, password, ok)
		}
		logins++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "token-1", "token_type": "Bearer", "expires_in": 3600}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Username("admin"), Password("secret"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	ctx := context.Background()
	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got := client.bearerToken(); got != "token-1" {
		t.Errorf("bearerToken() = %q, want %q", got, "token-1")
	}

	// Cached token should be reused
	if err := client.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if logins != 1 {
		t.Errorf("login count = %d, want 1 (token should be cached)", logins)
	}
}

// TestLoginMissingToken verifies handling of token responses without access_token
func TestLoginMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"token_type": "Bearer"}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Username("admin"), Password("secret"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	err = client.Login(context.Background())
	if err == nil {
		t.Fatal("Login() error = nil, want error for missing access_token")
	}
	if !strings.Contains(err.Error(), "no access_token") {
		t.Errorf("Login() error = %v, want access_token error", err)
	}
}

// TestLogout verifies token revocation and state reset
func TestLogout(t *testing.T) {
	revoked := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthTokenPath:
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token": "token-1", "expires_in": 3600}`)
		case AuthRevokePath:
			revoked = true
			if ct := r.Header.Get("Content-Type"); ct != MediaTypeForm {
				t.Errorf("revocation Content-Type = %q, want %q", ct, MediaTypeForm)
			}
			if err := r.ParseForm(); err != nil {
				t.Errorf("parsing revocation form: %v", err)
			}
			if got := r.PostForm.Get("token"); got != "token-1" {
				t.Errorf("revocation token = %q, want token-1", got)
			}
			if got := r.PostForm.Get("token_type_hint"); got != "token" {
				t.Errorf("token_type_hint = %q, want token", got)
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Username("admin"), Password("secret"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	ctx := context.Background()
	if err := client.Login(ctx); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := client.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if !revoked {
		t.Error("revocation endpoint not called")
	}
	if client.bearerToken() != "" {
		t.Error("token not cleared after Logout()")
	}
}

// TestLogoutWithoutToken verifies Logout is a no-op without a cached token
func TestLogoutWithoutToken(t *testing.T) {
	client, err := NewClient("https://nsp.example.com", Username("admin"), Password("secret"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if err := client.Logout(context.Background()); err != nil {
		t.Errorf("Logout() without token error = %v, want nil", err)
	}
}

// TestBackoff tests backoff delay calculations
func TestBackoff(t *testing.T) {
	tests := []struct {
		name     string
		attempt  int
		minDelay time.Duration
		maxDelay time.Duration
		factor   float64
		wantMin  time.Duration
		wantMax  time.Duration
	}{
		{
			name:     "first retry",
			attempt:  0,
			minDelay: 1 * time.Second,
			maxDelay: 60 * time.Second,
			factor:   2,
			wantMin:  1 * time.Second,
			wantMax:  1100 * time.Millisecond, // base + 10% jitter
		},
		{
			name:     "second retry",
			attempt:  1,
			minDelay: 1 * time.Second,
			maxDelay: 60 * time.Second,
			factor:   2,
			wantMin:  2 * time.Second,
			wantMax:  2200 * time.Millisecond,
		},
		{
			name:     "capped at max delay",
			attempt:  10,
			minDelay: 1 * time.Second,
			maxDelay: 60 * time.Second,
			factor:   2,
			wantMin:  60 * time.Second,
			wantMax:  66 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{
				BackoffMinDelay:    tt.minDelay,
				BackoffMaxDelay:    tt.maxDelay,
				BackoffDelayFactor: tt.factor,
				logger:             &NoOpLogger{},
			}
			got := client.Backoff(tt.attempt)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("Backoff(%d) = %v, want between %v and %v", tt.attempt, got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

// TestRedactSensitiveData tests sensitive data redaction in logs
func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "redact password",
			input: `{"username": "admin", "password": "secret123"}`,
			want:  `{"username": "admin", "password":"[REDACTED]"}`,
		},
		{
			name:  "redact access token",
			input: `{"access_token": "VEtOLWFk", "expires_in": 3600}`,
			want:  `{"access_token":"[REDACTED]", "expires_in": 3600}`,
		},
		{
			name:  "redact with whitespace around colon",
			input: `{"secret" : "hidden"}`,
			want:  `{"secret":"[REDACTED]"}`,
		},
		{
			name:  "no sensitive data",
			input: `{"target": "10.0.0.1", "intent-type": "iplink"}`,
			want:  `{"target": "10.0.0.1", "intent-type": "iplink"}`,
		},
	}

	client := &Client{
		logger:            &NoOpLogger{},
		redactionPatterns: defaultRedactionPatterns,
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := client.redactSensitiveData(tt.input)
			if got != tt.want {
				t.Errorf("redactSensitiveData() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestPrepareJSONForLogging tests log payload preparation guards
func TestPrepareJSONForLogging(t *testing.T) {
	client := &Client{
		logger:            &NoOpLogger{},
		redactionPatterns: defaultRedactionPatterns,
	}

	t.Run("oversized JSON", func(t *testing.T) {
		big := strings.Repeat("x", MaxJSONSizeForLogging+1)
		if got := client.prepareJSONForLogging(big); got != JSONTooLargeMessage {
			t.Errorf("prepareJSONForLogging() = %q, want %q", got[:50], JSONTooLargeMessage)
		}
	})

	t.Run("too many sensitive fields", func(t *testing.T) {
		var builder strings.Builder
		for i := 0; i < MaxSensitiveFields+1; i++ {
			builder.WriteString(`"password": "x",`)
		}
		if got := client.prepareJSONForLogging(builder.String()); got != JSONTooManySensitiveMsg {
			t.Errorf("prepareJSONForLogging() = %q, want %q", got, JSONTooManySensitiveMsg)
		}
	})

	t.Run("pretty printing", func(t *testing.T) {
		client.prettyPrintLogs = true
		got := client.prepareJSONForLogging(`{"a":1}`)
		if !strings.Contains(got, "\n") {
			t.Errorf("prepareJSONForLogging() = %q, want pretty-printed output", got)
		}
	})
}
