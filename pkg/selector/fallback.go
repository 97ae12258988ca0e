package selector

import "regexp"

// functionHeaderPattern finds function declarations in raw source text when
// no AST is available to walk. It captures only the name: a source that
// failed to compile can't be trusted to have well-formed parameter lists,
// so the fallback signature is deliberately the empty-parameter form
// (spec §4.4 edge case: "produces selectors with empty canonical types").
var functionHeaderPattern = regexp.MustCompile(`\bfunction\s+(\w+)\s*\(`)

// fallbackAnalyze scans src directly for function declarations when the
// compiler produced no AST (a compile failure). Every entry carries gas 0
// and a single "Gas unavailable" warning, since there is nothing to attach
// estimates to. Visibility defaults to "internal", the same default
// visibilityOf uses for an AST function node with no visibility keyword,
// keeping every GasInfo within the visibility enum invariant.
func fallbackAnalyze(src []byte) []GasInfo {
	lines := NewLineTable(src)
	matches := functionHeaderPattern.FindAllSubmatchIndex(src, -1)

	out := make([]GasInfo, 0, len(matches))
	for _, m := range matches {
		name := string(src[m[2]:m[3]])
		sig := name + "()"
		line := lines.Line(m[0])
		out = append(out, GasInfo{
			Name:            name,
			Signature:       sig,
			Selector:        Selector(sig),
			Visibility:      "internal",
			StateMutability: "nonpayable",
			Gas:             Finite(0),
			Loc:             Loc{Line: line, EndLine: line},
			Warnings:        []string{"Gas unavailable"},
		})
	}
	return out
}
