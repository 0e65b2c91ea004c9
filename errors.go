// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ApiError represents a structured NSP API error with operation context
type ApiError struct {
	// Operation name that failed
	Operation string

	// Method is the HTTP method of the failed request
	Method string

	// Path is the endpoint path of the failed request
	Path string

	// StatusCode is the HTTP status code (0 for transport errors)
	StatusCode int

	// Human-readable error message (RESTCONF error-message when available)
	Message string

	// Number of retry attempts made
	Retries int
}

// Error implements the error interface
func (e *ApiError) Error() string {
	if e.Retries > 0 {
		return fmt.Sprintf("nsp: %s %s failed: HTTP %d: %s (retries: %d)",
			e.Method, e.Path, e.StatusCode, e.Message, e.Retries)
	}
	return fmt.Sprintf("nsp: %s %s failed: HTTP %d: %s",
		e.Method, e.Path, e.StatusCode, e.Message)
}

// TransientStatusCodes defines the HTTP status codes that should trigger automatic retry
//
// These statuses are typically caused by temporary conditions such as:
//   - 429 Too Many Requests: rate limiting
//   - 502 Bad Gateway: gateway restart or upstream failure
//   - 503 Service Unavailable: controller temporarily down or overloaded
//   - 504 Gateway Timeout: slow upstream
//
// NOTE: 500 Internal Server Error is intentionally excluded. It is a
// catch-all status that includes many permanent failures; blindly retrying
// it can mask real problems and waste resources.
var TransientStatusCodes = []int{
	http.StatusTooManyRequests,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// isTransientStatus reports whether an HTTP status code is worth retrying.
func isTransientStatus(statusCode int) bool {
	for _, code := range TransientStatusCodes {
		if code == statusCode {
			return true
		}
	}
	return false
}

// RESTCONF error documents (RFC 8040 section 7.1) look like:
//
//	{
//	  "ietf-restconf:errors": {
//	    "error": [
//	      {
//	        "error-type": "application",
//	        "error-tag": "invalid-value",
//	        "error-message": "Intent not found"
//	      }
//	    ]
//	  }
//	}
//
// NSP occasionally emits the container without the module prefix, so both
// forms are handled.

// IsRestconfError reports whether a response body is a RESTCONF errors document.
func IsRestconfError(body gjson.Result) bool {
	return body.Get("ietf-restconf:errors").Exists() || body.Get("errors").Exists()
}

// restconfErrorList extracts the error array from either container form.
func restconfErrorList(body gjson.Result) []gjson.Result {
	errs := body.Get("ietf-restconf:errors.error")
	if !errs.Exists() {
		errs = body.Get("errors.error")
	}
	if !errs.Exists() {
		return nil
	}
	return errs.Array()
}

// RestconfErrorMessage extracts the first error-message from a RESTCONF
// errors document. Returns "" when the body is not a RESTCONF error.
func RestconfErrorMessage(body gjson.Result) string {
	for _, item := range restconfErrorList(body) {
		if msg := item.Get("error-message").String(); msg != "" {
			return msg
		}
	}
	return ""
}

// IsRestconfNotFound reports whether a RESTCONF errors document indicates
// that the requested resource does not exist.
//
// NSP reports missing resources with an "invalid-value" error-tag or a
// "not found" error-message rather than a consistent 404.
func IsRestconfNotFound(body gjson.Result) bool {
	for _, item := range restconfErrorList(body) {
		msg := strings.ToLower(item.Get("error-message").String())
		tag := strings.ToLower(item.Get("error-tag").String())
		if strings.Contains(msg, "not found") || tag == "invalid-value" || strings.Contains(msg, "404") {
			return true
		}
	}
	return false
}

// errorMessage derives a human-readable message from a failed response:
// the RESTCONF error-message when present, otherwise the status text.
func errorMessage(res Res) string {
	if msg := RestconfErrorMessage(res.Result); msg != "" {
		return msg
	}
	if text := http.StatusText(res.StatusCode); text != "" {
		return text
	}
	return "request failed"
}
