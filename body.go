// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Body is a JSON payload builder based on sjson
//
// It provides a fluent API for constructing request payloads without
// defining intermediate structs:
//
//	body := nsp.Body{}.
//	    Set("ibn:intent.target", "10.0.0.1").
//	    Set("ibn:intent.intent-type", "iplink").
//	    Set("ibn:intent.intent-type-version", 1).
//	    SetRaw("ibn:intent.intent-specific-data", config)
//	res, err := client.Post(ctx, "/restconf/data/ibn:ibn", body.Str)
//
// Path syntax follows sjson conventions, e.g. "a.b.c" for nested objects
// and "list.-1" to append to arrays.
type Body struct {
	Str string
}

// Set sets a JSON value at the given path.
//
// Values are serialized by sjson: strings become JSON strings, numbers
// become JSON numbers, and so on.
func (body Body) Set(path string, value any) Body {
	res, _ := sjson.Set(body.Str, path, value)
	body.Str = res
	return body
}

// SetRaw sets a raw JSON fragment at the given path.
//
// Unlike Set, the value is inserted verbatim, which is useful for embedding
// pre-built JSON such as intent configurations or workflow inputs.
func (body Body) SetRaw(path, value string) Body {
	res, _ := sjson.SetRaw(body.Str, path, value)
	body.Str = res
	return body
}

// Delete removes the JSON value at the given path.
func (body Body) Delete(path string) Body {
	res, _ := sjson.Delete(body.Str, path)
	body.Str = res
	return body
}

// Res returns the body as a gjson result for inspection.
func (body Body) Res() gjson.Result {
	return gjson.Parse(body.Str)
}
