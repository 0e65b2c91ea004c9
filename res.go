// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"net/http"

	"github.com/tidwall/gjson"
)

// Res represents an NSP API response
//
// The response body is parsed with gjson, so all gjson query methods are
// available directly on the result:
//
//	res, err := client.Get(ctx, "/wfm/api/v1/workflow")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, wf := range res.Get("response.data").Array() {
//	    fmt.Println(wf.Get("name").String())
//	}
//
// Non-JSON bodies (plain text responses) are still accessible via Raw and
// Body; gjson queries on them return zero values.
type Res struct {
	// Result is the response body parsed with gjson
	gjson.Result

	// StatusCode is the HTTP status code of the response
	StatusCode int

	// Header contains the response headers
	Header http.Header
}

// Body returns the raw response body as a string.
//
// For JSON responses this is the unparsed JSON text; for plain text
// responses it is the text itself.
func (r Res) Body() string {
	return r.Raw
}

// IsJSON reports whether the response body is a valid JSON document.
func (r Res) IsJSON() bool {
	return gjson.Valid(r.Raw)
}

// Success reports whether the status code indicates success for the given
// method. 2xx is success for every method; for DELETE a 404 also counts as
// success, making deletes idempotent (resource already absent).
func Success(method string, statusCode int) bool {
	if statusCode >= 200 && statusCode <= 299 {
		return true
	}
	return method == "DELETE" && statusCode == http.StatusNotFound
}

// newRes builds a Res from a status code, headers and raw body.
//
// The body is parsed with gjson when it is valid JSON; otherwise the raw
// text is preserved in Raw so callers can still access it via Body().
func newRes(statusCode int, header http.Header, body []byte) Res {
	res := Res{
		StatusCode: statusCode,
		Header:     header,
	}
	if gjson.ValidBytes(body) {
		res.Result = gjson.ParseBytes(body)
	} else {
		res.Result = gjson.Result{Type: gjson.String, Raw: string(body), Str: string(body)}
	}
	return res
}
