package selector

import "regexp"

var (
	loopPattern        = regexp.MustCompile(`\b(for|while)\s*\(([^)]*)\)`)
	dotCallPattern     = regexp.MustCompile(`\.\w+\s*\(`)
	indexedWritePattern = regexp.MustCompile(`\w+\s*\[[^\]]*\]\s*=[^=]`)
	delegatecallPattern = regexp.MustCompile(`\bdelegatecall\s*\(`)
)

// unboundedWarnings runs the five unbounded-gas heuristics (spec §4.4) over
// a function's own source substring and returns one warning message per
// heuristic that fires. Any warning firing means the caller should promote
// the attached gas estimate to Infinite.
func unboundedWarnings(fn *FunctionNode, body string) []string {
	var warnings []string

	if loc := loopPattern.FindStringSubmatchIndex(body); loc != nil {
		header := body[loc[4]:loc[5]]
		if referencesParameter(header, fn.Parameters) {
			warnings = append(warnings, "loop bound from calldata")
		}
		tail := body[loc[1]:]
		if dotCallPattern.MatchString(tail) {
			warnings = append(warnings, "external call inside loop")
		}
		if indexedWritePattern.MatchString(tail) {
			warnings = append(warnings, "dynamic storage write in loop")
		}
	}

	if delegatecallPattern.MatchString(body) {
		warnings = append(warnings, "delegatecall detected")
	}

	if fn.Name != "" && countCalls(body, fn.Name) > 1 {
		warnings = append(warnings, "possible recursion")
	}

	return warnings
}

func referencesParameter(header string, params []Parameter) bool {
	for _, p := range params {
		if p.Name == "" {
			continue
		}
		if wordBoundaryMatch(header, p.Name) {
			return true
		}
	}
	return false
}

func wordBoundaryMatch(s, word string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(s)
}

func countCalls(body, name string) int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
	return len(re.FindAllStringIndex(body, -1))
}
