// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// ProcessingMessage travels through the request and completion channels.
//
// A request carries the file to process and the tool to apply; the matching
// completion is the same message with OutputURI (or Error) filled in.
// The channel layer treats it as an opaque payload: only the application
// reads the fields.
type ProcessingMessage struct {
	// ID identifies the request; a completion keeps the ID of its request.
	ID string `json:"id" cbor:"1,keyasint"`

	// FileURI is the content store address of the input file.
	FileURI string `json:"file_uri" cbor:"2,keyasint"`

	// FileContentType is the MIME type of the input file.
	FileContentType string `json:"file_content_type" cbor:"3,keyasint"`

	// ToolName is the identifier of the tool to apply.
	ToolName string `json:"tool_name" cbor:"4,keyasint"`

	// RequesterID is the ID of the user who asked for the processing.
	RequesterID string `json:"requester_id" cbor:"5,keyasint"`

	// OutputURI is the content store address of the result. Empty on requests.
	OutputURI string `json:"output_uri,omitempty" cbor:"6,keyasint,omitempty"`

	// Error holds the failure reason of a completion that did not produce output.
	Error string `json:"error,omitempty" cbor:"7,keyasint,omitempty"`

	// TraceID is the trace identifier of the submitting request, if any.
	TraceID string `json:"trace_id,omitempty" cbor:"8,keyasint,omitempty"`
}

// Completed reports whether the message is a successful completion.
func (m ProcessingMessage) Completed() bool {
	return m.OutputURI != "" && m.Error == ""
}
