// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package tool defines the contract between the query agent and the
// functions the language model may invoke: the Tool interface, the
// structured Result/Error types that cross the tool boundary, and the
// JSON Schema fragments advertised to the model.
package tool

import "context"

// Tool is a function the language model can invoke with structured
// arguments. Implementations must be safe for concurrent use.
type Tool interface {
	// Name returns the tool identifier presented to the model.
	Name() string

	// Description returns a human-readable description of what the tool
	// does. The model uses this to decide when to call the tool.
	Description() string

	// InputSchema returns the JSON Schema for the tool's parameters.
	InputSchema() *JSONSchema

	// Execute runs the tool. Failures that the model should see are
	// reported inside the Result; a non-nil error is reserved for faults
	// the executor converts into a failure Result itself.
	Execute(ctx context.Context, params map[string]interface{}) (*Result, error)
}

// Result is the structured outcome of a tool execution. Success is
// mandatory; on failure Error carries the details. Data holds the
// tool-specific payload on success and may include a "chart_hint" key
// consumed by visualization inference.
type Result struct {
	Success         bool                   `json:"success"`
	Data            interface{}            `json:"data,omitempty"`
	Error           *Error                 `json:"error,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	ExecutionTimeMs int64                  `json:"execution_time_ms"`
	CacheHit        bool                   `json:"cache_hit,omitempty"`
}

// Error is a structured tool failure. It is data fed back into the
// conversation, never a Go error propagated up the stack.
type Error struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Retryable  bool                   `json:"retryable"`
	Suggestion string                 `json:"suggestion,omitempty"`
}

// Error codes produced by the executor itself.
const (
	CodeUnknownTool     = "unknown_tool"
	CodeInvalidParams   = "invalid_params"
	CodeExecutionFailed = "execution_failed"
)

// Fail builds a failure Result with the given code and message.
func Fail(code, message string) *Result {
	return &Result{
		Success: false,
		Error:   &Error{Code: code, Message: message},
	}
}

// JSONSchema describes tool parameters in JSON Schema draft-07 form.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Default     interface{}            `json:"default,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	MinItems    *int                   `json:"minItems,omitempty"`
	MaxItems    *int                   `json:"maxItems,omitempty"`
}

// NewObjectSchema creates an object schema with the given properties.
func NewObjectSchema(description string, properties map[string]*JSONSchema, required []string) *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: description,
		Properties:  properties,
		Required:    required,
	}
}

// NewStringSchema creates a string property schema.
func NewStringSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

// NewNumberSchema creates a number property schema.
func NewNumberSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "number", Description: description}
}

// NewIntegerSchema creates an integer property schema.
func NewIntegerSchema(description string) *JSONSchema {
	return &JSONSchema{Type: "integer", Description: description}
}

// NewArraySchema creates an array property schema with the given item type.
func NewArraySchema(description string, items *JSONSchema) *JSONSchema {
	return &JSONSchema{Type: "array", Description: description, Items: items}
}

// WithEnum restricts a schema to an enumerated value set.
func (s *JSONSchema) WithEnum(values ...string) *JSONSchema {
	s.Enum = values
	return s
}

// WithDefault sets the schema's default value.
func (s *JSONSchema) WithDefault(value interface{}) *JSONSchema {
	s.Default = value
	return s
}

// WithRange sets inclusive numeric bounds.
func (s *JSONSchema) WithRange(minimum, maximum float64) *JSONSchema {
	s.Minimum = &minimum
	s.Maximum = &maximum
	return s
}

// WithItemsBounds sets inclusive array length bounds.
func (s *JSONSchema) WithItemsBounds(minItems, maxItems int) *JSONSchema {
	s.MinItems = &minItems
	s.MaxItems = &maxItems
	return s
}
