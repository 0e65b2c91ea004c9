// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// testClient starts a test server that answers the OAuth2 token endpoint and
// delegates everything else to the handler. The returned client is
// preconfigured with fast retries.
func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == AuthTokenPath {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token": "test-token", "expires_in": 3600}`)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL,
		Username("admin"),
		Password("secret"),
		MaxRetries(2),
		BackoffMinDelay(1*time.Millisecond),
		BackoffMaxDelay(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client, srv
}

// TestDoLazyAuthentication verifies the token is acquired on first use and
// injected as a Bearer token
func TestDoLazyAuthentication(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer test-token")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "ok"}`)
	})

	res, err := client.Get(context.Background(), "/restconf/data/ibn:ibn")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := res.Get("status").String(); got != "ok" {
		t.Errorf("status = %q, want ok", got)
	}
}

// TestDoDefaultHeaders verifies Accept and Content-Type defaults
func TestDoDefaultHeaders(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		mods            []func(*Req)
		wantAccept      string
		wantContentType string
	}{
		{
			name:            "JSON body",
			body:            `{"a": 1}`,
			wantAccept:      MediaTypeJSON,
			wantContentType: MediaTypeJSON,
		},
		{
			name:            "text body",
			body:            "version: '2.0'\nmyWorkflow:\n  tasks: {}",
			wantAccept:      MediaTypeJSON,
			wantContentType: MediaTypeText,
		},
		{
			name:            "explicit content type wins",
			body:            `{"a": 1}`,
			mods:            []func(*Req){ContentType(MediaTypeYangJSON), Accept(MediaTypeYangJSON)},
			wantAccept:      MediaTypeYangJSON,
			wantContentType: MediaTypeYangJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAccept, gotContentType string
			client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotAccept = r.Header.Get("Accept")
				gotContentType = r.Header.Get("Content-Type")
				w.WriteHeader(http.StatusOK)
			})

			_, err := client.Post(context.Background(), "/test", tt.body, tt.mods...)
			if err != nil {
				t.Fatalf("Post() error = %v", err)
			}
			if gotAccept != tt.wantAccept {
				t.Errorf("Accept = %q, want %q", gotAccept, tt.wantAccept)
			}
			if gotContentType != tt.wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, tt.wantContentType)
			}
		})
	}
}

// TestDoDeleteNotFound verifies DELETE treats 404 as success
func TestDoDeleteNotFound(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	res, err := client.Delete(context.Background(), "/restconf/data/ibn:ibn/intent=x,y")
	if err != nil {
		t.Fatalf("Delete() on absent resource error = %v, want nil", err)
	}
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", res.StatusCode)
	}
}

// TestDoGetNotFound verifies GET surfaces 404 as an error
func TestDoGetNotFound(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Get(context.Background(), "/missing")
	if err == nil {
		t.Fatal("Get() error = nil, want error for 404")
	}
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *ApiError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
}

// TestDoTransientRetry verifies transient statuses are retried with backoff
func TestDoTransientRetry(t *testing.T) {
	var calls int32
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "ok"}`)
	})

	res, err := client.Get(context.Background(), "/flaky")
	if err != nil {
		t.Fatalf("Get() error = %v, want success after retries", err)
	}
	if res.Get("status").String() != "ok" {
		t.Errorf("unexpected response %s", res.Raw)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("request count = %d, want 3", got)
	}
}

// TestDoRetriesExhausted verifies a persistent transient status fails after
// MaxRetries attempts
func TestDoRetriesExhausted(t *testing.T) {
	var calls int32
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Get(context.Background(), "/down")
	if err == nil {
		t.Fatal("Get() error = nil, want error after exhausted retries")
	}
	// MaxRetries(2) means 3 attempts in total
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("request count = %d, want 3", got)
	}
}

// TestDoNonTransientNoRetry verifies permanent errors are not retried
func TestDoNonTransientNoRetry(t *testing.T) {
	var calls int32
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Get(context.Background(), "/bad")
	if err == nil {
		t.Fatal("Get() error = nil, want error for 400")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("request count = %d, want 1 (400 must not be retried)", got)
	}
}

// TestDoReauthentication verifies a rejected token triggers exactly one
// re-login and request replay
func TestDoReauthentication(t *testing.T) {
	var tokens int32
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == AuthTokenPath {
			n := atomic.AddInt32(&tokens, 1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"access_token": "token-%d", "expires_in": 3600}`, n)
			return
		}
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer token-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "ok"}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Username("admin"), Password("secret"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	res, err := client.Get(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Get() error = %v, want success after re-login", err)
	}
	if res.Get("status").String() != "ok" {
		t.Errorf("unexpected response %s", res.Raw)
	}
	if got := atomic.LoadInt32(&tokens); got != 2 {
		t.Errorf("token requests = %d, want 2", got)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("data requests = %d, want 2 (original + replay)", got)
	}
}

// TestDoPersistentUnauthorized verifies a 401 after re-login is surfaced as
// an error instead of looping
func TestDoPersistentUnauthorized(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Get(context.Background(), "/data")
	if err == nil {
		t.Fatal("Get() error = nil, want error for persistent 401")
	}
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *ApiError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
}

// TestDoContextCancellation verifies a cancelled context aborts the request
func TestDoContextCancellation(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/data")
	if err == nil {
		t.Fatal("Get() error = nil, want context error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// TestDoRestconfErrorMessage verifies RESTCONF error messages surface in
// ApiError
func TestDoRestconfErrorMessage(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", MediaTypeYangJSON)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ietf-restconf:errors": {"error": [{"error-type": "application", "error-tag": "invalid-value", "error-message": "intent type not found"}]}}`)
	})

	_, err := client.Get(context.Background(), "/restconf/data/ibn:ibn/intent=x,y")
	if err == nil {
		t.Fatal("Get() error = nil, want RESTCONF error")
	}
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *ApiError", err)
	}
	if apiErr.Message != "intent type not found" {
		t.Errorf("Message = %q, want RESTCONF error-message", apiErr.Message)
	}
}

// TestCalculateTotalTimeout verifies the total retry time budget
func TestCalculateTotalTimeout(t *testing.T) {
	client := &Client{
		RequestTimeout:  10 * time.Second,
		MaxRetries:      2,
		BackoffMaxDelay: 5 * time.Second,
	}

	// 3 attempts * 10s + 2 backoffs * 5s
	want := 40 * time.Second
	if got := client.calculateTotalTimeout(Req{}); got != want {
		t.Errorf("calculateTotalTimeout() = %v, want %v", got, want)
	}

	// Request timeout overrides the per-attempt budget
	want = 2*time.Second*3 + 10*time.Second
	if got := client.calculateTotalTimeout(Req{Timeout: 2 * time.Second}); got != want {
		t.Errorf("calculateTotalTimeout() with request timeout = %v, want %v", got, want)
	}
}

// TestNoAuthRequest verifies NoAuth requests skip token handling
func TestNoAuthRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == AuthTokenPath {
			t.Error("token endpoint called for NoAuth request")
			return
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty for NoAuth request", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, Username("admin"), Password("secret"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Get(context.Background(), "/health", NoAuth()); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
}
