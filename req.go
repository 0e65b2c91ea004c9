// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"net/http"
	"time"
)

// Req represents an NSP API request
//
// Requests are normally created by the operation methods (Get, Post, Put,
// Patch, Delete) and customized via functional modifiers. Operation
// parameters (path, body) are passed directly to methods.
//
// Example:
//
//	// Post with RESTCONF media type and custom timeout
//	res, err := client.Post(ctx, "/restconf/data/ibn:ibn", body,
//	    nsp.ContentType("application/yang-data+json"),
//	    nsp.Accept("application/yang-data+json"),
//	    nsp.Timeout(30*time.Second))
type Req struct {
	// Method is the HTTP method - GET, POST, PUT, PATCH, DELETE
	Method string

	// Path is the API endpoint path without the base URL, may carry a query string
	Path string

	// Body is the request body ("" for no body)
	Body string

	// Header carries additional request headers. Accept defaults to
	// "application/json" and Content-Type is inferred from the body
	// unless set here.
	Header http.Header

	// Timeout is the request-specific timeout
	// Overrides the client default timeout if set
	Timeout time.Duration

	// noAuth disables Bearer token injection (used by the token endpoints)
	noAuth bool

	// basicAuth enables HTTP Basic authentication with the client credentials
	// (used by the token and revocation endpoints)
	basicAuth bool

	// noLogPayload suppresses payload logging for this request (binary bodies)
	noLogPayload bool
}

// NewReq creates a request with the given method, path and body and applies
// any modifiers.
//
// Most callers use the operation methods instead; NewReq is useful together
// with Do() when a single request needs full control:
//
//	req := nsp.NewReq("POST", "/wfm/api/v1/workflow/validate", definition,
//	    nsp.ContentType("text/plain"))
//	res, err := client.Do(ctx, req)
func NewReq(method, path, body string, mods ...func(*Req)) Req {
	req := Req{
		Method: method,
		Path:   path,
		Body:   body,
		Header: make(http.Header),
	}
	for _, mod := range mods {
		mod(&req)
	}
	return req
}
