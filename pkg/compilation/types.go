// Package compilation orchestrates end-to-end compilation requests: pragma
// resolution, compiler loading, the actual solc invocation, gas/selector
// analysis of the result, and a fingerprint-keyed cache of everything
// produced along the way (spec §4.5).
package compilation

import (
	"time"

	"github.com/solgas/engine/pkg/fingerprint"
	"github.com/solgas/engine/pkg/selector"
	"github.com/solgas/engine/pkg/solc"
)

// Trigger identifies what caused a compile request, which in turn governs
// debounce behavior (spec §3 Lifecycles, §4.5).
type Trigger string

const (
	TriggerFileOpen       Trigger = "file-open"
	TriggerFileSave       Trigger = "file-save"
	TriggerChange         Trigger = "change"
	TriggerManual         Trigger = "manual"
	TriggerSettingsChange Trigger = "settings-change"
	TriggerPragmaChange   Trigger = "pragma-change"
)

// CompilationOutput is the compiler-facing half of a compile: what actually
// came back from solc, processed into the shapes the rest of the engine
// consumes.
type CompilationOutput struct {
	Success          bool
	Version          string
	GasInfo          []selector.GasInfo
	Errors           []solc.Diagnostic
	Warnings         []solc.Diagnostic
	AST              []byte
	Bytecode         string
	DeployedBytecode string
}

// CompilationResult extends CompilationOutput with the request-facing
// bookkeeping a caller needs to correlate results back to requests.
type CompilationResult struct {
	CompilationOutput
	URI         string
	Timestamp   time.Time
	Trigger     Trigger
	Fingerprint fingerprint.Fingerprint
	Cached      bool
}

// EventKind enumerates the events CompilationService emits.
type EventKind string

const (
	EventCompilationStart   EventKind = "compilation:start"
	EventCompilationSuccess EventKind = "compilation:success"
	EventCompilationError   EventKind = "compilation:error"
	EventVersionDownloading EventKind = "version:downloading"
	EventVersionReady       EventKind = "version:ready"
)

// Event is one notification emitted to subscribers as a compile progresses.
type Event struct {
	Kind        EventKind
	URI         string
	Fingerprint fingerprint.Fingerprint
	Result      *CompilationResult
	Err         error
}
