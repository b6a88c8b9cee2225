// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"strings"
)

const (
	descriptorFieldSep = "\t"
	descriptorTypesSep = ","
)

// ErrMalformedToolDescriptor is returned by [ParseToolDescriptor] when a line
// does not hold the expected number of fields.
var ErrMalformedToolDescriptor = errors.New("malformed tool descriptor")

var fieldReplacer = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// ToolDescriptor is the public description of a registered processing tool.
type ToolDescriptor struct {
	// Name is the unique identifier the client sends back to select the tool.
	Name string `json:"name"`

	// BriefDescription is a one-line summary.
	BriefDescription string `json:"brief_description"`

	// LongDescription explains what the tool does in detail.
	LongDescription string `json:"long_description"`

	// ProcessableTypes lists the accepted content types. Empty means the tool
	// is multipurpose and accepts anything.
	ProcessableTypes []string `json:"processable_types"`
}

// Multipurpose reports whether the tool accepts every content type.
func (d ToolDescriptor) Multipurpose() bool {
	return len(d.ProcessableTypes) == 0
}

// String renders the descriptor as a single wire line:
//
//	name<TAB>brief<TAB>long<TAB>type1,type2
//
// Tabs and line breaks inside fields are replaced by spaces so the result is
// always exactly one line with four fields.
func (d ToolDescriptor) String() string {
	types := make([]string, 0, len(d.ProcessableTypes))
	for _, t := range d.ProcessableTypes {
		types = append(types, strings.ReplaceAll(sanitizeDescriptorField(t), descriptorTypesSep, ""))
	}

	return strings.Join([]string{
		sanitizeDescriptorField(d.Name),
		sanitizeDescriptorField(d.BriefDescription),
		sanitizeDescriptorField(d.LongDescription),
		strings.Join(types, descriptorTypesSep),
	}, descriptorFieldSep)
}

// ParseToolDescriptor is the inverse of [ToolDescriptor.String].
func ParseToolDescriptor(line string) (ToolDescriptor, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), descriptorFieldSep)
	if len(fields) != 4 || fields[0] == "" {
		return ToolDescriptor{}, ErrMalformedToolDescriptor
	}

	var types []string
	if fields[3] != "" {
		types = strings.Split(fields[3], descriptorTypesSep)
	}

	return ToolDescriptor{
		Name:             fields[0],
		BriefDescription: fields[1],
		LongDescription:  fields[2],
		ProcessableTypes: types,
	}, nil
}

func sanitizeDescriptorField(s string) string {
	return fieldReplacer.Replace(s)
}

// ToolOutput is the result of a single tool invocation.
type ToolOutput struct {
	Content     []byte
	ContentType string
}
