// Package tools defines the tool layer consumed by the plumber agents:
// every operation (log retrieval, lint dispatch, pipeline submission, git
// ops) is registered as a named Tool with a small argument schema, and the
// CLI executes them uniformly through the Registry.
package tools

import (
	"context"

	"plumber/internal/report"
)

// Category groups tools for listing and selection.
type Category string

const (
	// CategoryMonitoring covers Cloud Logging and Cloud Monitoring queries.
	CategoryMonitoring Category = "/monitoring"

	// CategoryLint covers the formatting/linting dispatcher.
	CategoryLint Category = "/lint"

	// CategoryPipeline covers Dataflow, Dataproc and dbt operations.
	CategoryPipeline Category = "/pipeline"

	// CategoryGit covers repository operations.
	CategoryGit Category = "/git"

	// CategoryGeneral is for tools that fit no other category.
	CategoryGeneral Category = "/general"
)

// Property describes a single tool parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// Schema defines the arguments a tool accepts.
type Schema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc runs a tool and returns its report.
type ExecuteFunc func(ctx context.Context, args map[string]any) report.Report

// Tool is one named operation.
type Tool struct {
	// Name is the unique identifier, e.g. "get_latest_error".
	Name string

	// Description explains what the tool does.
	Description string

	// Category groups the tool for listing.
	Category Category

	// Execute runs the tool.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema Schema
}

// Validate checks the tool definition.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Result wraps a tool's report with execution metadata.
type Result struct {
	ToolName   string
	Report     report.Report
	DurationMs int64
}

// String functions for argument extraction. Tool arguments arrive as
// map[string]any from the CLI or an agent; these helpers keep the
// per-tool Execute funcs short.

// StringArg returns args[key] as a string, or def when absent.
func StringArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

// IntArg returns args[key] as an int, or def when absent or non-numeric.
func IntArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// BoolArg returns args[key] as a bool, or def when absent.
func BoolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}
