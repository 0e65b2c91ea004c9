// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/sjson"
)

// RESTCONF endpoint roots
const (
	RestconfDataPath       = "/restconf/data"
	RestconfOperationsPath = "/restconf/operations"
)

// wrapInput wraps a JSON input object into the RESTCONF input container of
// the given namespace, e.g. {"ibn:input": {...}} for namespace "ibn".
//
// An empty input produces an empty input container, which RESTCONF
// operations require even when they take no parameters.
func wrapInput(namespace, input string) (string, error) {
	if input == "" {
		input = "{}"
	}
	body, err := sjson.SetRaw("", namespace+":input", input)
	if err != nil {
		return "", fmt.Errorf("wrapping %s:input: %w", namespace, err)
	}
	return body, nil
}

// operationNamespace extracts the module namespace from a RESTCONF operation
// name, e.g. "ibn" from "ibn:search-intents". Returns "" when the name
// carries no prefix; Rpc and Action reject such names since the input
// container cannot be qualified without one.
func operationNamespace(operation string) string {
	if idx := strings.IndexByte(operation, ':'); idx > 0 {
		return operation[:idx]
	}
	return ""
}

// Rpc invokes a RESTCONF operation (YANG RPC) on the controller.
//
// The operation name carries its module namespace, e.g. "ibn:search-intents".
// The input object is wrapped into the operation's input container
// automatically:
//
//	input := nsp.Body{}.Set("filter.config-required", false).Str
//	res, err := client.Rpc(ctx, "ibn:search-intents", input)
//
// sends POST /restconf/operations/ibn:search-intents with body
// {"ibn:input": {"filter": {"config-required": false}}}.
func (c *Client) Rpc(ctx context.Context, operation, input string, mods ...func(*Req)) (Res, error) {
	ns := operationNamespace(operation)
	if ns == "" {
		return Res{}, fmt.Errorf("operation %q has no module namespace", operation)
	}
	body, err := wrapInput(ns, input)
	if err != nil {
		return Res{}, err
	}
	path := RestconfOperationsPath + "/" + operation
	return c.Post(ctx, path, body, mods...)
}

// Action invokes a YANG action on a RESTCONF data resource.
//
// The action name carries its module namespace and the resource path
// identifies the data node the action is defined on:
//
//	res, err := client.Action(ctx,
//	    "ibn:ibn/intent=cid001,iplink", "ibn:audit", "")
//
// sends POST /restconf/data/ibn:ibn/intent=cid001,iplink/ibn:audit.
func (c *Client) Action(ctx context.Context, resourcePath, action, input string, mods ...func(*Req)) (Res, error) {
	ns := operationNamespace(action)
	if ns == "" {
		return Res{}, fmt.Errorf("action %q has no module namespace", action)
	}
	body, err := wrapInput(ns, input)
	if err != nil {
		return Res{}, err
	}
	path := RestconfDataPath + "/" + strings.TrimPrefix(resourcePath, "/") + "/" + action
	return c.Post(ctx, path, body, mods...)
}
