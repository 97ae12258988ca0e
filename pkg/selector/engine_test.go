package selector_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/solgas/engine/pkg/selector"
	"github.com/solgas/engine/pkg/solc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonSrc(start, length int) string {
	return itoa(start) + ":" + itoa(length) + ":0"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func functionDefNode(src []byte, name, visibility, stateMutability string, params []map[string]string) map[string]any {
	var paramList []any
	for _, p := range params {
		paramList = append(paramList, map[string]any{
			"name": p["name"],
			"typeDescriptions": map[string]any{
				"typeString": p["type"],
			},
		})
	}
	return map[string]any{
		"nodeType":        "FunctionDefinition",
		"name":             name,
		"kind":             "function",
		"visibility":       visibility,
		"stateMutability":  stateMutability,
		"src":              functionSrcFromName(src, name),
		"parameters": map[string]any{
			"parameters": paramList,
		},
	}
}

func functionSrcFromName(src []byte, name string) string {
	start := bytes.Index(src, []byte("function "+name+"("))
	closeRel := bytes.IndexByte(src[start:], '}')
	return jsonSrc(start, closeRel+1)
}

func wrapInContract(fn map[string]any) []byte {
	doc := map[string]any{
		"nodeType": "SourceUnit",
		"nodes": []any{
			map[string]any{
				"nodeType": "ContractDefinition",
				"nodes":    []any{fn},
			},
		},
	}
	raw, _ := json.Marshal(doc)
	return raw
}

func TestAnalyze_ScenarioA_TrivialContract(t *testing.T) {
	src := []byte("pragma solidity ^0.8.20;\n\ncontract C {\nfunction a() external pure returns (uint256) { return 1; }\n}\n")

	fn := functionDefNode(src, "a", "external", "pure", nil)
	ast := wrapInContract(fn)

	estimates := &solc.GasEstimates{External: map[string]string{"a()": "21000"}}

	infos := selector.Analyze(src, ast, estimates)
	require.Len(t, infos, 1)

	got := infos[0]
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, "0x0dbe671f", got.Selector)
	assert.Equal(t, "external", got.Visibility)
	assert.Equal(t, "pure", got.StateMutability)
	assert.Empty(t, got.Warnings)
	assert.False(t, got.Gas.IsInfinite())
}

func TestAnalyze_ScenarioB_UnboundedGasHeuristic(t *testing.T) {
	src := []byte("pragma solidity ^0.8.20;\n\ncontract C {\n" +
		"function sweep(address target, uint256 n) external {\n" +
		"for (uint i = 0; i < n; ++i) { target.call(\"\"); }\n" +
		"}\n}\n")

	fn := functionDefNode(src, "sweep", "external", "", []map[string]string{
		{"name": "target", "type": "address"},
		{"name": "n", "type": "uint256"},
	})
	ast := wrapInContract(fn)

	infos := selector.Analyze(src, ast, nil)
	require.Len(t, infos, 1)

	got := infos[0]
	assert.True(t, got.Gas.IsInfinite())
	assert.Contains(t, got.Warnings, "loop bound from calldata")
	assert.Contains(t, got.Warnings, "external call inside loop")
}

func TestAnalyze_MissingASTUsesFallback(t *testing.T) {
	src := []byte("function broken(uint x) public {\n")
	infos := selector.Analyze(src, nil, nil)
	require.Len(t, infos, 1)
	assert.Equal(t, "broken", infos[0].Name)
	assert.Equal(t, "broken()", infos[0].Signature)
	assert.Equal(t, []string{"Gas unavailable"}, infos[0].Warnings)
	assert.False(t, infos[0].Gas.IsInfinite())
	assert.Equal(t, uint64(0), infos[0].Gas.Uint64())
	assert.Equal(t, "internal", infos[0].Visibility)
}

func TestAnalyze_ConstructorKeptAnonymousFunctionsSkipped(t *testing.T) {
	src := []byte("contract C {\nconstructor() public { }\nfunction () external { }\n}\n")
	constructorNode := map[string]any{
		"nodeType":   "FunctionDefinition",
		"name":       "",
		"kind":       "constructor",
		"visibility": "public",
		"src":        functionSrcFromKind(src, "constructor()"),
	}
	fallbackNode := map[string]any{
		"nodeType":   "FunctionDefinition",
		"name":       "",
		"kind":       "fallback",
		"visibility": "external",
		"src":        functionSrcFromKind(src, "function ()"),
	}
	doc := map[string]any{
		"nodeType": "SourceUnit",
		"nodes": []any{
			map[string]any{
				"nodeType": "ContractDefinition",
				"nodes":    []any{constructorNode, fallbackNode},
			},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	infos := selector.Analyze(src, raw, nil)
	require.Len(t, infos, 1)
	assert.Equal(t, "constructor", infos[0].Name)
}

func functionSrcFromKind(src []byte, marker string) string {
	start := bytes.Index(src, []byte(marker))
	closeRel := bytes.IndexByte(src[start:], '}')
	return jsonSrc(start, closeRel+1)
}
