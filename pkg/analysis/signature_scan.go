package analysis

import (
	"regexp"
	"strings"

	"github.com/solgas/engine/pkg/selector"
)

// functionHeaderPattern matches a function header up to (but excluding) its
// body or the trailing semicolon of an interface declaration, capturing the
// name, raw parameter list, and every modifier token in between (visibility,
// mutability, override, etc. all land in group 3 undistinguished).
var functionHeaderPattern = regexp.MustCompile(`function\s+(\w+)\s*\(([^)]*)\)([^{;]*)`)

// scannedFunction is one function as seen by the lightweight, AST-free source
// scan the signature-only view is built from.
type scannedFunction struct {
	Name       string
	Signature  string
	Selector   string
	Visibility string
	Line       int
}

// scanSignatures performs the "lightweight source scan" spec §4.6 step 3
// calls for: a regex pass over the raw buffer that recovers enough of each
// function's shape to compute its canonical signature and selector without
// invoking the compiler. It is deliberately approximate — mapping and tuple
// parameter types are not reconstructed precisely — since its result is
// always superseded by the full AST-derived view once the background
// compile completes.
func scanSignatures(src []byte) []scannedFunction {
	lines := selector.NewLineTable(src)
	matches := functionHeaderPattern.FindAllSubmatchIndex(src, -1)

	out := make([]scannedFunction, 0, len(matches))
	for _, m := range matches {
		name := string(src[m[2]:m[3]])
		paramText := string(src[m[4]:m[5]])
		modifiers := string(src[m[6]:m[7]])

		params := scanParams(paramText)
		sig := selector.CanonicalSignature(name, params)
		sel := selector.Selector(sig)

		out = append(out, scannedFunction{
			Name:       name,
			Signature:  sig,
			Selector:   sel,
			Visibility: visibilityFromModifiers(modifiers),
			Line:       lines.Line(m[0]),
		})
	}
	return out
}

// scanParams splits a raw parameter list on top-level commas and takes the
// leading whitespace-separated token of each as its type — correct for
// ordinary value and array types, approximate for mapping/tuple types (see
// scanSignatures doc).
func scanParams(paramText string) []selector.Parameter {
	paramText = strings.TrimSpace(paramText)
	if paramText == "" {
		return nil
	}

	var params []selector.Parameter
	depth := 0
	start := 0
	split := func(end int) {
		seg := strings.TrimSpace(paramText[start:end])
		if seg == "" {
			return
		}
		fields := strings.Fields(seg)
		if len(fields) == 0 {
			return
		}
		params = append(params, selector.Parameter{TypeString: fields[0]})
	}
	for i, r := range paramText {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				split(i)
				start = i + 1
			}
		}
	}
	split(len(paramText))
	return params
}

func visibilityFromModifiers(modifiers string) string {
	switch {
	case strings.Contains(modifiers, "external"):
		return "external"
	case strings.Contains(modifiers, "internal"):
		return "internal"
	case strings.Contains(modifiers, "private"):
		return "private"
	case strings.Contains(modifiers, "public"):
		return "public"
	default:
		return "public"
	}
}
