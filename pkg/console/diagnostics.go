package console

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solgas/engine/pkg/solc"
)

// severityOrder defines the display order for diagnostic severities.
var severityOrder = map[string]int{
	"error":   1,
	"warning": 2,
	"info":    3,
}

// severityEmoji maps a diagnostic severity to an emoji for visual identification.
var severityEmoji = map[string]string{
	"error":   "✗",
	"warning": "⚠",
	"info":    "ℹ",
}

// FormatDiagnosticsSummary formats a solc Output.Errors slice into a
// user-friendly summary: one header line with the error count (or, when
// there are no errors, the warning count) and, in verbose mode, the full
// formatted message for each diagnostic, errors first. No per-severity
// counts are shown.
func FormatDiagnosticsSummary(diags []solc.Diagnostic, verbose bool) string {
	if len(diags) == 0 {
		return ""
	}

	errorCount, warningCount := 0, 0
	for _, d := range diags {
		if d.IsError() {
			errorCount++
		} else {
			warningCount++
		}
	}

	var output strings.Builder

	if errorCount > 0 {
		output.WriteString(FormatErrorMessage(fmt.Sprintf("Compilation failed with %d error(s)", errorCount)))
		output.WriteString("\n\n")
	} else {
		output.WriteString(FormatWarningMessage(fmt.Sprintf("Compiled with %d warning(s)", warningCount)))
		output.WriteString("\n\n")
	}

	sorted := make([]solc.Diagnostic, len(diags))
	copy(sorted, diags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank(sorted[i].Severity) < severityRank(sorted[j].Severity)
	})

	if !verbose {
		output.WriteString(FormatInfoMessage("Use --verbose to see the full diagnostic list"))
		output.WriteString("\n")
		return output.String()
	}

	output.WriteString(FormatListHeader("Diagnostics:"))
	output.WriteString("\n\n")
	for i, d := range sorted {
		emoji := severityEmoji[d.Severity]
		if emoji == "" {
			emoji = "⚠"
		}
		output.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, emoji, strings.ToUpper(d.Severity)))
		msg := d.FormattedMessage
		if msg == "" {
			msg = d.Message
		}
		for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
			output.WriteString("   " + line + "\n")
		}
		output.WriteString("\n")
	}

	return output.String()
}

func severityRank(severity string) int {
	if rank, ok := severityOrder[severity]; ok {
		return rank
	}
	return len(severityOrder) + 1
}
