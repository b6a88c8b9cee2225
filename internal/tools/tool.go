// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package tools holds the registry of processing tools and the tools shipped
// with the server.
//
// A tool is any value implementing [Tool]. Tools reach the registry through
// [Provider]s that the host process passes to [NewRegistry] at startup.
package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/models"
)

// Tool is a processing capability.
type Tool interface {
	// Name is the unique identifier of the tool.
	Name() string
	BriefDescription() string
	LongDescription() string
	// ProcessableTypes lists the accepted content types. An empty list makes
	// the tool multipurpose.
	ProcessableTypes() []string
	// ProcessFile transforms content. Implementations should return early
	// when ctx is done.
	ProcessFile(ctx context.Context, content []byte, contentType string) (models.ToolOutput, error)
}

// Provider supplies tools to a [Registry].
type Provider interface {
	Tools() []Tool
}

// ProviderFunc adapts a function to [Provider].
type ProviderFunc func() []Tool

func (f ProviderFunc) Tools() []Tool {
	return f()
}

var (
	ErrDuplicateTool = errors.New("duplicate tool name")
	ErrInvalidTool   = errors.New("invalid tool")

	// ErrToolTimeout is returned by [Registry.Invoke] when a tool does not
	// finish in time.
	ErrToolTimeout = fmt.Errorf("tool timed out: %w", app.ErrToolFailure)
	// ErrToolPanicked is returned by [Registry.Invoke] when a tool panics.
	ErrToolPanicked = fmt.Errorf("tool panicked: %w", app.ErrToolFailure)
)

// Describe returns the public descriptor of t.
func Describe(t Tool) models.ToolDescriptor {
	return models.ToolDescriptor{
		Name:             t.Name(),
		BriefDescription: t.BriefDescription(),
		LongDescription:  t.LongDescription(),
		ProcessableTypes: slices.Clone(t.ProcessableTypes()),
	}
}
