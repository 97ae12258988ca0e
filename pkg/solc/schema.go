package solc

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// outputSchemaDoc is a permissive shape check for a solc --standard-json
// response: the top-level fields the rest of this package reads must have
// the right kind, without constraining the nested ABI/AST documents (those
// are opaque json.RawMessage payloads this package forwards rather than
// interprets, so pinning their shape here would reject legitimate solc
// output the moment the ABI or AST format gained a field).
const outputSchemaDoc = `{
  "type": "object",
  "properties": {
    "errors": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "severity": {"type": "string"},
          "message": {"type": "string"},
          "formattedMessage": {"type": "string"}
        }
      }
    },
    "sources": {"type": "object"},
    "contracts": {"type": "object"}
  }
}`

var (
	outputSchemaOnce     sync.Once
	outputSchemaResolved *jsonschema.Resolved
	outputSchemaErr      error
)

// getOutputSchema lazily compiles outputSchemaDoc, the same embed-once-and-
// cache shape pkg/config uses for the compiler settings schema (a different
// library, santhosh-tekuri/jsonschema/v6, because this is a different
// boundary: an external process's stdout rather than a user-authored config
// file), so the generic solc.Output boundary check in validateOutput pays
// the compile cost once per process.
func getOutputSchema() (*jsonschema.Resolved, error) {
	outputSchemaOnce.Do(func() {
		var schema jsonschema.Schema
		if err := json.Unmarshal([]byte(outputSchemaDoc), &schema); err != nil {
			outputSchemaErr = fmt.Errorf("solc: parse output schema: %w", err)
			return
		}
		outputSchemaResolved, outputSchemaErr = schema.Resolve(nil)
	})
	return outputSchemaResolved, outputSchemaErr
}

// validateOutput checks raw solc stdout against outputSchemaDoc before the
// caller trusts its shape. solc exits non-zero on compile errors too, and a
// wrong-version or corrupted binary can still emit JSON that unmarshals into
// a zero-valued Output without a decode error; this catches the case where
// the top-level fields aren't even the right kind.
func validateOutput(data []byte) error {
	schema, err := getOutputSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("solc: parse output for validation: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("solc: output failed schema validation: %w", err)
	}
	return nil
}
