// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package nsp provides a simple, fluent API for the Nokia Network Services
// Platform (NSP) REST and RESTCONF APIs.
//
// The library handles OAuth2 client-credentials authentication with automatic
// token lifecycle management (acquisition, expiry-aware reuse, revocation),
// a uniform request/response envelope, automatic retry of transient errors
// with exponential backoff, and streaming file transfers with checksum
// verification.
//
// # Quick Start
//
// Create a client and perform basic operations:
//
//	client, err := nsp.NewClient(
//	    "https://nsp.example.com",
//	    nsp.Username("admin"),
//	    nsp.Password("secret"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx := context.Background()
//	defer client.Logout(ctx)
//
//	// Generic REST call
//	res, err := client.Get(ctx, "/nsp-file-service-app/rest/api/v1/directory?dirName=/nokia")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Parse response using gjson
//	for _, file := range res.Get("response.data.#.name").Array() {
//	    fmt.Println(file.String())
//	}
//
// # JSON Manipulation
//
// Use the Body builder for constructing JSON payloads:
//
//	body := nsp.Body{}.
//	    Set("name", "nsp.ping").
//	    Set("input.host", "localhost").
//	    Set("input.duration", 1)
//
//	res, err = client.Post(ctx, "/wfm/api/v1/action-execution", body.Str)
//
// # RESTCONF Operations
//
// Global RPCs and resource-bound actions use the RESTCONF endpoints:
//
//	// Global RPC
//	res, err := client.Rpc(ctx, "nsp-inventory:find",
//	    `{"xpath-filter": "/nsp-equipment:network/network-element"}`)
//
//	// Resource action
//	res, err = client.Action(ctx, "ibn:ibn/intent=cid001,iplink", "ibn:synchronize", "")
//
// # Error Handling
//
// The library automatically retries transient errors (HTTP 429, 502, 503,
// 504 and transport failures) with exponential backoff:
//
//	client, err := nsp.NewClient(
//	    "https://nsp.example.com",
//	    nsp.Username("admin"),
//	    nsp.Password("secret"),
//	    nsp.MaxRetries(5),
//	    nsp.BackoffMinDelay(1*time.Second),
//	    nsp.BackoffMaxDelay(60*time.Second),
//	)
//
// DELETE requests treat HTTP 404 as success so deletes are idempotent.
//
// # Thread Safety
//
// The client is safe for concurrent use. Token acquisition is serialized so
// concurrent requests share a single login.
//
// # Supported Services
//
//   - Generic REST envelope: Get, Post, Put, Patch, Delete
//   - RESTCONF: Rpc, Action
//   - Intent Manager: UploadIntentType, AddIntent, DeleteIntent, DeleteIntentType
//   - Workflow Manager: DefineWorkflow, UploadWorkflow, ExecuteWorkflow, DeleteWorkflow
//   - File service: DownloadFile, UploadFile
//   - System: Version
//
// # References
//
//   - RESTCONF Protocol: https://datatracker.ietf.org/doc/html/rfc8040
//   - OAuth2 Client Credentials: https://datatracker.ietf.org/doc/html/rfc6749#section-4.4
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
package nsp
