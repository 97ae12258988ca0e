// Package selector turns a compiled source file's AST (or, failing that,
// its raw text) into the per-function selector and gas picture the rest of
// the engine presents to callers: canonical signatures, 4-byte selectors,
// attached gas estimates, and the unbounded-gas heuristic warnings.
package selector

import (
	"encoding/json"

	"github.com/solgas/engine/pkg/logger"
	"github.com/solgas/engine/pkg/solc"
)

var log = logger.New("selector:engine")

// Loc is a function's source location, 1-based and inclusive on both ends.
type Loc struct {
	Line    int
	EndLine int
}

// GasInfo is one function's selector entry, in document order.
type GasInfo struct {
	Name            string
	Signature       string
	Selector        string
	Visibility      string
	StateMutability string
	Gas             GasValue
	Loc             Loc
	Warnings        []string
}

// Analyze walks the AST of a single compiled source file (ast, the raw JSON
// from solc.OutSource.AST) and emits one GasInfo per named function, in
// document order, attaching gas from estimates (the contract's
// evm.gasEstimates; may be nil). When ast is empty — the source failed to
// compile — it falls back to a regex scan of src instead.
func Analyze(src []byte, ast json.RawMessage, estimates *solc.GasEstimates) []GasInfo {
	if len(ast) == 0 {
		return fallbackAnalyze(src)
	}

	lines := NewLineTable(src)
	var out []GasInfo

	var visit func(raw json.RawMessage)
	visit = func(raw json.RawMessage) {
		node, ok := parseNode(raw)
		if !ok {
			return
		}
		if node.Function != nil {
			if info, emit := buildGasInfo(node.Function, src, lines, estimates); emit {
				out = append(out, info)
			}
			return
		}
		for _, child := range node.Other.Children {
			visit(child)
		}
	}
	visit(ast)

	return out
}

func buildGasInfo(fn *FunctionNode, src []byte, lines *LineTable, estimates *solc.GasEstimates) (GasInfo, bool) {
	name := fn.Name
	if name == "" {
		if fn.Kind == "constructor" {
			name = "constructor"
		} else {
			return GasInfo{}, false
		}
	}

	sig := CanonicalSignature(name, fn.Parameters)
	sel := Selector(sig)

	var loc Loc
	var bodyText string
	if r, ok := ParseSrc(fn.Src); ok {
		loc = Loc{Line: lines.Line(r.Start), EndLine: lines.Line(maxInt(r.Start, r.End()-1))}
		bodyText = string(r.Slice(src))
	}

	gas := attachGas(sig, name, estimates)
	warnings := unboundedWarnings(fn, bodyText)
	if len(warnings) > 0 {
		gas = Infinite
	}

	return GasInfo{
		Name:            name,
		Signature:       sig,
		Selector:        sel,
		Visibility:      visibilityOf(fn),
		StateMutability: stateMutabilityOf(fn),
		Gas:             gas,
		Loc:             loc,
		Warnings:        warnings,
	}, true
}

func visibilityOf(fn *FunctionNode) string {
	if fn.Visibility != "" {
		return fn.Visibility
	}
	return "internal"
}

func stateMutabilityOf(fn *FunctionNode) string {
	if fn.StateMutability != "" {
		return fn.StateMutability
	}
	return "nonpayable"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
