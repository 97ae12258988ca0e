// Package config loads and validates CompilerSettings (spec §3): the
// optimizer/evmVersion/viaIR options CompilationService feeds into every
// compile request.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/solgas/engine/pkg/logger"
	"github.com/solgas/engine/pkg/solc"
)

var log = logger.New("config:settings")

//go:embed schemas/compiler_settings_schema.json
var settingsSchemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		var doc any
		if err := json.Unmarshal([]byte(settingsSchemaJSON), &doc); err != nil {
			schemaErr = fmt.Errorf("config: parse embedded schema: %w", err)
			return
		}
		const schemaURL = "https://solgas.dev/schema/compiler-settings.json"
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("config: add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Defaults returns the CompilerSettings defaults spec §3 enumerates:
// optimizer enabled with 200 runs, evmVersion "paris", viaIR disabled.
func Defaults() solc.InputSettings {
	var s solc.InputSettings
	s.Optimizer.Enabled = true
	s.Optimizer.Runs = 200
	s.EVMVersion = "paris"
	s.ViaIR = false
	return s
}

// Load reads a YAML-encoded CompilerSettings document from data, validates it
// against the embedded schema, then merges it over Defaults(). An empty or
// absent document (len(data) == 0) yields Defaults() unchanged.
func Load(data []byte) (solc.InputSettings, error) {
	if len(data) == 0 {
		return Defaults(), nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return solc.InputSettings{}, fmt.Errorf("config: parse settings yaml: %w", err)
	}

	if err := validate(doc); err != nil {
		return solc.InputSettings{}, err
	}

	settings := Defaults()
	applyOverrides(&settings, doc)
	log.Printf("loaded compiler settings: optimizer.enabled=%v optimizer.runs=%d evmVersion=%s viaIR=%v",
		settings.Optimizer.Enabled, settings.Optimizer.Runs, settings.EVMVersion, settings.ViaIR)
	return settings, nil
}

func validate(doc map[string]any) error {
	schema, err := getCompiledSchema()
	if err != nil {
		return fmt.Errorf("config: compile schema: %w", err)
	}

	// Round-trip through JSON so goccy/go-yaml's decoded types (which may
	// include yaml-specific number representations) normalize to the
	// plain map[string]any/float64/string/bool/nil the schema validator
	// expects, the same normalization the teacher's own schema validation
	// performs before calling Validate.
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: marshal settings for validation: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(asJSON, &normalized); err != nil {
		return fmt.Errorf("config: normalize settings for validation: %w", err)
	}

	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("config: invalid compiler settings: %w", err)
	}
	return nil
}

// applyOverrides merges doc's recognized fields over settings, leaving
// unspecified fields at their current (default) value — the same
// progressive-fill shape the teacher uses to build config structs from a
// loosely-typed map.
func applyOverrides(settings *solc.InputSettings, doc map[string]any) {
	if optimizer, ok := doc["optimizer"].(map[string]any); ok {
		if enabled, ok := optimizer["enabled"].(bool); ok {
			settings.Optimizer.Enabled = enabled
		}
		if runs, ok := toInt(optimizer["runs"]); ok {
			settings.Optimizer.Runs = runs
		}
	}
	if evmVersion, ok := doc["evmVersion"].(string); ok {
		settings.EVMVersion = evmVersion
	}
	if viaIR, ok := doc["viaIR"].(bool); ok {
		settings.ViaIR = viaIR
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}

// Merge applies a partial override document over an existing settings value
// — the shape updateSettings(partial) (spec §4.5, §6) needs.
func Merge(base solc.InputSettings, partial map[string]any) (solc.InputSettings, error) {
	if err := validate(partial); err != nil {
		return solc.InputSettings{}, err
	}
	applyOverrides(&base, partial)
	return base, nil
}
