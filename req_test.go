// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"testing"
	"time"
)

// TestNewReq tests request construction with modifiers
func TestNewReq(t *testing.T) {
	req := NewReq("POST", "/restconf/data/ibn:ibn", `{"a":1}`,
		Accept(MediaTypeYangJSON),
		ContentType(MediaTypeYangJSON),
		Timeout(5*time.Second),
		Header("X-Trace-Id", "abc123"))

	if req.Method != "POST" {
		t.Errorf("Method = %q, want POST", req.Method)
	}
	if req.Path != "/restconf/data/ibn:ibn" {
		t.Errorf("Path = %q, want /restconf/data/ibn:ibn", req.Path)
	}
	if req.Body != `{"a":1}` {
		t.Errorf("Body = %q, want original body", req.Body)
	}
	if got := req.Header.Get("Accept"); got != MediaTypeYangJSON {
		t.Errorf("Accept = %q, want %q", got, MediaTypeYangJSON)
	}
	if got := req.Header.Get("Content-Type"); got != MediaTypeYangJSON {
		t.Errorf("Content-Type = %q, want %q", got, MediaTypeYangJSON)
	}
	if req.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", req.Timeout)
	}
	if got := req.Header.Get("X-Trace-Id"); got != "abc123" {
		t.Errorf("X-Trace-Id = %q, want abc123", got)
	}
}

// TestReqFlags tests the auth and logging flags
func TestReqFlags(t *testing.T) {
	req := NewReq("GET", "/health", "")
	if req.noAuth || req.basicAuth || req.noLogPayload {
		t.Error("flags set by default, want all false")
	}

	req = NewReq("GET", "/health", "", NoAuth(), NoLogPayload())
	if !req.noAuth {
		t.Error("noAuth = false after NoAuth()")
	}
	if !req.noLogPayload {
		t.Error("noLogPayload = false after NoLogPayload()")
	}
}
