// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// FileMetadata describes a stored file as seen by the requesting user.
// It is derived from the content store listing on every read and never
// persisted on its own.
type FileMetadata struct {
	// Name is the file name relative to its owner. For administrators the
	// owner ID is kept as the first path segment ("u0000000000000003/a.txt").
	Name string `json:"name"`

	// ContentType is the MIME type inferred from Name.
	ContentType string `json:"content_type"`

	// URI is the full address of the file in the content store.
	URI string `json:"uri"`

	// Size is the length of the file content in bytes.
	Size int64 `json:"size"`
}

// SizeKB returns the size in kilobytes, as shown to end users.
func (f FileMetadata) SizeKB() float64 {
	return float64(f.Size) / 1024
}
