package main

import (
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// GenerateOutputSchema generates a JSON schema from a Go struct type for an
// MCP tool's output, the same reflection-based generation the teacher's
// pkg/cli/mcp_schema.go uses for its own tool outputs.
func GenerateOutputSchema[T any]() (*jsonschema.Schema, error) {
	var zero T
	typ := reflect.TypeOf(zero)

	schema, err := jsonschema.ForType(typ, &jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}
	return schema, nil
}
