// Package solctest provides a deterministic fake solc.Compiler for use in
// tests across the registry, compilation, and analysis packages, so those
// tests never shell out to a real compiler binary.
package solctest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/solgas/engine/pkg/solc"
)

// Fixture describes one canned compilation outcome, keyed by the exact
// source text FakeCompiler.Compile is asked to compile.
type Fixture struct {
	// AST is the raw solc AST JSON to return for this source's sole file,
	// or nil to simulate a compile failure (no AST).
	AST json.RawMessage
	// Estimates is the evm.gasEstimates to attach to the sole contract
	// compiled from this source.
	Estimates *solc.GasEstimates
	// Errors are the diagnostics to return alongside the (possibly absent)
	// AST and estimates.
	Errors []solc.Diagnostic
}

// FakeCompiler is a solc.Compiler whose output is entirely driven by
// pre-registered Fixtures, so tests can exercise CompilationService and
// AnalysisEngine without an external process.
type FakeCompiler struct {
	fixtures map[string]Fixture
	// Delay, if non-nil, is invoked before returning — tests use this to
	// simulate slow compiles for debounce/single-flight scenarios.
	Delay func(ctx context.Context) error
	// Calls counts how many times Compile was invoked, for dedupe assertions.
	Calls int
}

// New returns an empty FakeCompiler; register outcomes with Register.
func New() *FakeCompiler {
	return &FakeCompiler{fixtures: make(map[string]Fixture)}
}

// Register associates a Fixture with the exact source text it should be
// returned for.
func (f *FakeCompiler) Register(source string, fixture Fixture) {
	f.fixtures[source] = fixture
}

// Compile implements solc.Compiler. It looks up the fixture registered for
// input's single source file's content; an unregistered source compiles
// successfully with no contracts (mirrors the boundary behavior for empty
// sources, spec §8).
func (f *FakeCompiler) Compile(ctx context.Context, input *solc.Input, resolver solc.ImportResolver) (*solc.Output, error) {
	f.Calls++

	if f.Delay != nil {
		if err := f.Delay(ctx); err != nil {
			return nil, err
		}
	}

	var content string
	var uri string
	for k, v := range input.Sources {
		uri = k
		content = v.Content
		break
	}

	fixture, ok := f.fixtures[content]
	if !ok {
		return &solc.Output{}, nil
	}

	out := &solc.Output{Errors: fixture.Errors}
	if fixture.AST != nil {
		out.Sources = map[string]solc.OutSource{uri: {AST: fixture.AST}}
	}
	if fixture.Estimates != nil || fixture.AST != nil {
		out.Contracts = map[string]map[string]solc.Contract{
			uri: {
				"Contract": {
					EVM: solc.EVMOutput{GasEstimates: fixture.Estimates},
				},
			},
		}
	}
	return out, nil
}

// FunctionAST builds a minimal single-function AST JSON document suitable
// for a Fixture, wrapping a FunctionDefinition in a SourceUnit/ContractDefinition
// shell the way a real solc AST does.
func FunctionAST(name, kind, visibility, stateMutability, src string, params []ParamSpec) json.RawMessage {
	var paramList []map[string]any
	for _, p := range params {
		paramList = append(paramList, map[string]any{
			"name": p.Name,
			"typeDescriptions": map[string]any{
				"typeString": p.TypeString,
			},
		})
	}

	fn := map[string]any{
		"nodeType":        "FunctionDefinition",
		"name":            name,
		"kind":            kind,
		"visibility":      visibility,
		"stateMutability": stateMutability,
		"src":             src,
		"parameters": map[string]any{
			"parameters": paramList,
		},
	}
	doc := map[string]any{
		"nodeType": "SourceUnit",
		"nodes": []any{
			map[string]any{
				"nodeType": "ContractDefinition",
				"nodes":    []any{fn},
			},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("solctest: build fixture AST: %v", err))
	}
	return raw
}

// ParamSpec is one parameter for FunctionAST.
type ParamSpec struct {
	Name       string
	TypeString string
}
