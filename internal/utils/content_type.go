package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

// DefaultContentType is used when nothing better is known about a file.
const DefaultContentType = "application/octet-stream"

// ContentTypeByName infers the MIME type of a file from its extension.
// Parameters such as "; charset=utf-8" are dropped.
func ContentTypeByName(name string) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		return DefaultContentType
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return DefaultContentType
	}
	return mediaType
}

// NormalizeContentType lowercases ct and strips its parameters. An empty or
// unparsable value becomes [DefaultContentType].
func NormalizeContentType(ct string) string {
	if strings.TrimSpace(ct) == "" {
		return DefaultContentType
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return DefaultContentType
	}
	return mediaType
}
