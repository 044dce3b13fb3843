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
package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Executor runs tools from a registry. Every failure mode is converted
// into a structured failure Result: unknown tool names, parameter
// validation failures, and errors returned by the tool itself all come
// back as Result values the model can read and adapt to. Execute never
// panics through and never returns a Go error to the caller.
type Executor struct {
	registry *Registry

	// Compiled parameter schemas, keyed by tool name.
	schemaMu sync.RWMutex
	schemas  map[string]*gojsonschema.Schema
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry: registry,
		schemas:  make(map[string]*gojsonschema.Schema),
	}
}

// Execute looks up and runs the named tool. The returned Result always
// has ExecutionTimeMs stamped by the executor, which is authoritative
// even when the tool set its own value.
func (e *Executor) Execute(ctx context.Context, toolName string, params map[string]interface{}) *Result {
	t, ok := e.registry.Get(toolName)
	if !ok {
		return &Result{
			Success: false,
			Error: &Error{
				Code:       CodeUnknownTool,
				Message:    fmt.Sprintf("tool not found: %s", toolName),
				Suggestion: fmt.Sprintf("available tools: %s", strings.Join(e.registry.List(), ", ")),
			},
		}
	}

	if err := e.validateParams(t, params); err != nil {
		return &Result{
			Success: false,
			Error: &Error{
				Code:       CodeInvalidParams,
				Message:    err.Error(),
				Suggestion: "check the tool's input schema and correct the arguments",
			},
		}
	}

	start := time.Now()
	result, err := t.Execute(ctx, params)
	duration := time.Since(start)

	if err != nil {
		return &Result{
			Success:         false,
			Error:           &Error{Code: CodeExecutionFailed, Message: err.Error()},
			ExecutionTimeMs: duration.Milliseconds(),
		}
	}

	if result == nil {
		result = &Result{Success: true}
	}
	result.ExecutionTimeMs = duration.Milliseconds()
	return result
}

// Tools returns the tools available to this executor.
func (e *Executor) Tools() []Tool {
	return e.registry.Tools()
}

// validateParams checks params against the tool's input schema. Schemas
// compile once per tool and are cached.
func (e *Executor) validateParams(t Tool, params map[string]interface{}) error {
	schema := t.InputSchema()
	if schema == nil {
		return nil
	}

	compiled, err := e.compiledSchema(t.Name(), schema)
	if err != nil {
		// A broken schema is a programming error in the tool, not bad
		// input from the model. Skip validation rather than block the tool.
		return nil
	}

	if params == nil {
		params = map[string]interface{}{}
	}
	res, err := compiled.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, len(res.Errors()))
		for i, verr := range res.Errors() {
			msgs[i] = verr.String()
		}
		return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func (e *Executor) compiledSchema(name string, schema *JSONSchema) (*gojsonschema.Schema, error) {
	e.schemaMu.RLock()
	compiled, ok := e.schemas[name]
	e.schemaMu.RUnlock()
	if ok {
		return compiled, nil
	}

	e.schemaMu.Lock()
	defer e.schemaMu.Unlock()
	if compiled, ok := e.schemas[name]; ok {
		return compiled, nil
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema for %s: %w", name, err)
	}
	e.schemas[name] = compiled
	return compiled, nil
}
