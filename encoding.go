// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package nsp

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Media type constants for NSP operations
const (
	// MediaTypeJSON is the default media type for REST payloads
	MediaTypeJSON = "application/json"

	// MediaTypeYangJSON is the RESTCONF media type for YANG-modeled data
	// This is used by the Intent Manager endpoints
	MediaTypeYangJSON = "application/yang-data+json"

	// MediaTypeText is used for raw text payloads (workflow definitions)
	MediaTypeText = "text/plain"

	// MediaTypeForm is used by the OAuth2 revocation endpoint
	MediaTypeForm = "application/x-www-form-urlencoded"

	// MediaTypeMultipart is used for file uploads (a boundary parameter is appended)
	MediaTypeMultipart = "multipart/form-data"

	// MediaTypeOctetStream is the fallback media type for binary content
	MediaTypeOctetStream = "application/octet-stream"
)

// ValidMediaTypes contains the list of media types accepted by NSP endpoints
var ValidMediaTypes = []string{
	MediaTypeJSON,
	MediaTypeYangJSON,
	MediaTypeText,
	MediaTypeForm,
	MediaTypeMultipart,
	MediaTypeOctetStream,
}

// ValidateMediaType checks if the media type is valid for NSP endpoints
//
// Media type parameters (charset, boundary) are ignored for the check.
//
// Example:
//
//	if err := nsp.ValidateMediaType("application/yang-data+json"); err != nil {
//	    log.Fatal(err)
//	}
func ValidateMediaType(mediaType string) error {
	base := strings.TrimSpace(mediaType)
	if idx := strings.IndexByte(base, ';'); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	for _, valid := range ValidMediaTypes {
		if base == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid media type: %s (valid values: %s)",
		mediaType, strings.Join(ValidMediaTypes, ", "))
}

// defaultContentType infers the Content-Type for a request body.
//
// Bodies that parse as JSON are sent as application/json, everything else
// as text/plain. Empty bodies have no content type.
func defaultContentType(body string) string {
	if body == "" {
		return ""
	}
	if gjson.Valid(body) {
		return MediaTypeJSON
	}
	return MediaTypeText
}
