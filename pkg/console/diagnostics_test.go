package console_test

import (
	"strings"
	"testing"

	"github.com/solgas/engine/pkg/console"
	"github.com/solgas/engine/pkg/solc"
	"github.com/stretchr/testify/assert"
)

func TestFormatDiagnosticsSummary_Empty(t *testing.T) {
	assert.Equal(t, "", console.FormatDiagnosticsSummary(nil, false))
}

func TestFormatDiagnosticsSummary_ErrorsNonVerbose(t *testing.T) {
	diags := []solc.Diagnostic{
		{Severity: "error", Message: "type mismatch", FormattedMessage: "contract.sol:3:5: type mismatch"},
		{Severity: "warning", Message: "unused variable"},
	}
	out := console.FormatDiagnosticsSummary(diags, false)
	assert.Contains(t, out, "1 error(s)")
	assert.Contains(t, out, "--verbose")
	assert.False(t, strings.Contains(out, "type mismatch"))
}

func TestFormatDiagnosticsSummary_VerboseListsFormattedMessage(t *testing.T) {
	diags := []solc.Diagnostic{
		{Severity: "error", Message: "type mismatch", FormattedMessage: "contract.sol:3:5: type mismatch"},
	}
	out := console.FormatDiagnosticsSummary(diags, true)
	assert.Contains(t, out, "contract.sol:3:5: type mismatch")
}

func TestFormatDiagnosticsSummary_OnlyWarnings(t *testing.T) {
	diags := []solc.Diagnostic{
		{Severity: "warning", Message: "unused variable"},
	}
	out := console.FormatDiagnosticsSummary(diags, false)
	assert.Contains(t, out, "1 warning(s)")
}
