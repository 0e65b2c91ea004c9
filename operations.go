// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// calculateTotalTimeout computes the total time budget for a request
// including all retries and backoff delays.
//
// The calculation is: (timeout per attempt * number of attempts) + sum of max backoff delays
// This ensures the total context timeout accommodates the complete retry sequence.
func (c *Client) calculateTotalTimeout(req Req) time.Duration {
	perAttempt := c.RequestTimeout
	if req.Timeout > 0 {
		perAttempt = req.Timeout
	}

	attempts := time.Duration(c.MaxRetries + 1)
	total := perAttempt * attempts

	// Add worst-case backoff delays between attempts
	for i := 0; i < c.MaxRetries; i++ {
		total += c.BackoffMaxDelay
	}

	return total
}

// checkContextCancellation returns the context error if the context is done.
func checkContextCancellation(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// createAttemptContext derives the per-attempt context.
//
// Timeout priority:
//  1. Request-specific timeout (req.Timeout) - always applied when set
//  2. Existing context deadline - preserved when no request timeout is set
//  3. Client.RequestTimeout - fallback when neither is set
func (c *Client) createAttemptContext(ctx context.Context, req Req) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.RequestTimeout)
}

// Do sends a request to the NSP controller and returns the parsed response.
//
// Do handles the complete request lifecycle:
//   - Lazy authentication (Bearer token acquisition and injection)
//   - Content negotiation (Accept defaults to application/json, Content-Type
//     inferred from the body unless set)
//   - Automatic retry of transient errors (HTTP 429, 502, 503, 504 and
//     transport failures) with exponential backoff
//   - Single transparent re-login when a cached token is rejected with 401
//   - Idempotent delete semantics (DELETE + 404 is success)
//
// Most callers use the operation methods (Get, Post, Put, Patch, Delete)
// instead; Do is useful when a request needs full control.
//
// Example:
//
//	req := nsp.NewReq("POST", "/restconf/operations/ibn:search-intents", body)
//	res, err := client.Do(ctx, req)
func (c *Client) Do(ctx context.Context, req Req) (Res, error) {
	// Check context before starting
	if err := checkContextCancellation(ctx); err != nil {
		return Res{}, err
	}

	if !req.noAuth {
		if err := c.Authenticate(ctx); err != nil {
			return Res{}, err
		}
	}

	// Apply total timeout budget covering all retries unless the caller
	// already set a deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.calculateTotalTimeout(req))
		defer cancel()
	}

	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", MediaTypeJSON)
	}
	if req.Header.Get("Content-Type") == "" {
		if ct := defaultContentType(req.Body); ct != "" {
			req.Header.Set("Content-Type", ct)
		}
	}

	if !req.noLogPayload && req.Body != "" {
		c.logger.Debug(ctx, "HTTP request",
			"method", req.Method,
			"path", req.Path,
			"payload", c.prepareJSONForLogging(req.Body))
	} else {
		c.logger.Debug(ctx, "HTTP request",
			"method", req.Method,
			"path", req.Path)
	}

	var res Res
	var lastErr error
	reauthenticated := false

	for attempt := 0; ; attempt++ {
		if err := checkContextCancellation(ctx); err != nil {
			return Res{}, err
		}

		res, lastErr = c.doAttempt(ctx, req)

		if lastErr != nil {
			// Transport error - retry with backoff
			if attempt < c.MaxRetries {
				c.logger.Warn(ctx, "request failed, retrying",
					"method", req.Method,
					"path", req.Path,
					"attempt", attempt+1,
					"max_retries", c.MaxRetries,
					"error", lastErr.Error())
				if err := c.sleepBackoff(ctx, attempt); err != nil {
					return Res{}, err
				}
				continue
			}
			c.logger.Error(ctx, "request failed, retries exhausted",
				"method", req.Method,
				"path", req.Path,
				"retries", c.MaxRetries,
				"error", lastErr.Error())
			return Res{}, fmt.Errorf("%s %s: %w", req.Method, req.Path, lastErr)
		}

		// Expired or revoked token: drop the cached token, log in again and
		// replay the request once
		if res.StatusCode == http.StatusUnauthorized && !req.noAuth && !reauthenticated {
			c.logger.Info(ctx, "token rejected, re-authenticating",
				"method", req.Method,
				"path", req.Path)
			c.invalidateToken(ctx)
			if err := c.Authenticate(ctx); err != nil {
				return res, err
			}
			reauthenticated = true
			continue
		}

		if isTransientStatus(res.StatusCode) && attempt < c.MaxRetries {
			c.logger.Warn(ctx, "transient HTTP status, retrying",
				"method", req.Method,
				"path", req.Path,
				"status", res.StatusCode,
				"attempt", attempt+1,
				"max_retries", c.MaxRetries)
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return Res{}, err
			}
			continue
		}

		if !Success(req.Method, res.StatusCode) {
			apiErr := &ApiError{
				Method:     req.Method,
				Path:       req.Path,
				StatusCode: res.StatusCode,
				Message:    errorMessage(res),
				Retries:    attempt,
			}
			c.logger.Error(ctx, "HTTP request failed",
				"method", req.Method,
				"path", req.Path,
				"status", res.StatusCode,
				"message", apiErr.Message)
			return res, apiErr
		}

		if res.IsJSON() && !req.noLogPayload {
			c.logger.Debug(ctx, "HTTP response",
				"method", req.Method,
				"path", req.Path,
				"status", res.StatusCode,
				"payload", c.prepareJSONForLogging(res.Raw))
		} else {
			c.logger.Debug(ctx, "HTTP response",
				"method", req.Method,
				"path", req.Path,
				"status", res.StatusCode)
		}
		return res, nil
	}
}

// doAttempt performs a single HTTP exchange.
func (c *Client) doAttempt(ctx context.Context, req Req) (Res, error) {
	attemptCtx, cancel := c.createAttemptContext(ctx, req)
	defer cancel()

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, c.Url+req.Path, body)
	if err != nil {
		return Res{}, fmt.Errorf("creating request: %w", err)
	}

	for name, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(name, value)
		}
	}

	if req.basicAuth {
		httpReq.SetBasicAuth(c.username, c.password)
	} else if !req.noAuth {
		httpReq.Header.Set("Authorization", "Bearer "+c.bearerToken())
	}

	httpRes, err := c.HttpClient.Do(httpReq)
	if err != nil {
		return Res{}, err
	}
	defer httpRes.Body.Close()

	resBody, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return Res{}, fmt.Errorf("reading response body: %w", err)
	}

	return newRes(httpRes.StatusCode, httpRes.Header, resBody), nil
}

// sleepBackoff waits for the backoff delay of the given attempt, aborting
// early when the context is cancelled.
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.Backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get sends a GET request to the NSP controller.
//
// Example:
//
//	res, err := client.Get(ctx, "/wfm/api/v1/workflow?name=myWorkflow")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Get("response.data.0.id").String())
func (c *Client) Get(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, NewReq("GET", path, "", mods...))
}

// Post sends a POST request with the given body.
//
// The Content-Type is inferred from the body unless set via a modifier:
// valid JSON is sent as application/json, everything else as text/plain.
func (c *Client) Post(ctx context.Context, path, body string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, NewReq("POST", path, body, mods...))
}

// Put sends a PUT request with the given body.
func (c *Client) Put(ctx context.Context, path, body string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, NewReq("PUT", path, body, mods...))
}

// Patch sends a PATCH request with the given body.
func (c *Client) Patch(ctx context.Context, path, body string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, NewReq("PATCH", path, body, mods...))
}

// Delete sends a DELETE request.
//
// Deletes are idempotent: a 404 response is treated as success since the
// resource is already absent.
func (c *Client) Delete(ctx context.Context, path string, mods ...func(*Req)) (Res, error) {
	return c.Do(ctx, NewReq("DELETE", path, "", mods...))
}
