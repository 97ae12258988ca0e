// Package analysis implements the façade a driver (editor extension, CLI,
// MCP tool) actually talks to: on every edit it returns an immediate
// signature-only view while a full compilation runs in the background, and
// publishes the full view once that compilation lands (spec §4.6).
package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/solgas/engine/pkg/compilation"
	"github.com/solgas/engine/pkg/fingerprint"
	"github.com/solgas/engine/pkg/logger"
	"github.com/solgas/engine/pkg/selector"
	"github.com/solgas/engine/pkg/solc"
)

var log = logger.New("analysis:engine")

// GasEstimate is one function's entry in LiveAnalysis.GasEstimates.
type GasEstimate struct {
	Gas      selector.GasValue
	Warnings []string
}

// LiveAnalysis is what subscribers and callers of OnOpen/OnChange observe.
type LiveAnalysis struct {
	GasEstimates map[string]GasEstimate
	Diagnostics  []solc.Diagnostic
	IsPending    bool
	GasInfo      []selector.GasInfo
}

// EventKind enumerates the events Engine emits.
type EventKind string

// EventAnalysisReady is the only event Engine emits: a full analysis landed
// for a uri, superseding whatever signature-only view was returned earlier.
const EventAnalysisReady EventKind = "analysis:ready"

// Event is one notification emitted as a full analysis becomes available.
type Event struct {
	Kind     EventKind
	URI      string
	Analysis LiveAnalysis
}

// Engine is the two-tier-cache façade in front of a CompilationService.
type Engine struct {
	compiler *compilation.CompilationService

	mu               sync.Mutex
	signatureCache   map[fingerprint.Fingerprint]*LiveAnalysis
	solcResultsCache map[fingerprint.Fingerprint]*LiveAnalysis
	uriToFingerprint map[string]fingerprint.Fingerprint
	pending          map[fingerprint.Fingerprint]struct{}

	subMu       sync.RWMutex
	subscribers map[chan Event]struct{}

	unsubscribe func()
}

// New builds an Engine in front of svc, and starts the background listener
// that turns svc's compilation:success/error events into analysis:ready
// events.
func New(svc *compilation.CompilationService) *Engine {
	e := &Engine{
		compiler:         svc,
		signatureCache:   make(map[fingerprint.Fingerprint]*LiveAnalysis),
		solcResultsCache: make(map[fingerprint.Fingerprint]*LiveAnalysis),
		uriToFingerprint: make(map[string]fingerprint.Fingerprint),
		pending:          make(map[fingerprint.Fingerprint]struct{}),
		subscribers:      make(map[chan Event]struct{}),
	}

	events, unsubscribe := svc.Subscribe()
	e.unsubscribe = unsubscribe
	go e.listen(events)

	return e
}

// Close stops the background listener. The Engine must not be used
// afterward.
func (e *Engine) Close() {
	e.unsubscribe()
}

func (e *Engine) listen(events <-chan compilation.Event) {
	for ev := range events {
		switch ev.Kind {
		case compilation.EventCompilationSuccess:
			e.onCompilationSuccess(ev)
		case compilation.EventCompilationError:
			e.onCompilationError(ev)
		}
	}
}

func (e *Engine) onCompilationSuccess(ev compilation.Event) {
	result := ev.Result
	full := buildFullAnalysis(result)

	e.mu.Lock()
	e.solcResultsCache[ev.Fingerprint] = &full
	delete(e.pending, ev.Fingerprint)
	e.mu.Unlock()

	e.emit(Event{Kind: EventAnalysisReady, URI: ev.URI, Analysis: full})
}

func (e *Engine) onCompilationError(ev compilation.Event) {
	full := LiveAnalysis{
		Diagnostics: []solc.Diagnostic{{
			Severity: "error",
			Message:  ev.Err.Error(),
		}},
		IsPending: false,
	}

	e.mu.Lock()
	e.solcResultsCache[ev.Fingerprint] = &full
	delete(e.pending, ev.Fingerprint)
	e.mu.Unlock()

	e.emit(Event{Kind: EventAnalysisReady, URI: ev.URI, Analysis: full})
}

func buildFullAnalysis(result *compilation.CompilationResult) LiveAnalysis {
	estimates := make(map[string]GasEstimate, len(result.GasInfo))
	for _, gi := range result.GasInfo {
		estimates[gi.Name] = GasEstimate{Gas: gi.Gas, Warnings: gi.Warnings}
	}

	diagnostics := make([]solc.Diagnostic, 0, len(result.Errors)+len(result.Warnings))
	diagnostics = append(diagnostics, result.Errors...)
	diagnostics = append(diagnostics, result.Warnings...)

	return LiveAnalysis{
		GasEstimates: estimates,
		Diagnostics:  diagnostics,
		IsPending:    false,
		GasInfo:      result.GasInfo,
	}
}

// Subscribe registers a new listener for analysis:ready events.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	e.subMu.Lock()
	e.subscribers[ch] = struct{}{}
	e.subMu.Unlock()

	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
	}
}

func (e *Engine) emit(ev Event) {
	e.subMu.RLock()
	defer e.subMu.RUnlock()
	for ch := range e.subscribers {
		select {
		case ch <- ev:
		default:
			log.Printf("dropping analysis:ready for %s: subscriber channel full", ev.URI)
		}
	}
}

// OnOpen implements spec §4.6 onOpen: returns cached full analysis if
// present, else a signature-only view, while unconditionally scheduling an
// undebounced background compile.
func (e *Engine) OnOpen(source []byte, uri string) LiveAnalysis {
	return e.onEdit(source, uri, compilation.TriggerFileOpen)
}

// OnChange implements spec §4.6 onChange: identical to OnOpen but the
// scheduled compile uses the debounced "change" trigger.
func (e *Engine) OnChange(source []byte, uri string) LiveAnalysis {
	return e.onEdit(source, uri, compilation.TriggerChange)
}

func (e *Engine) onEdit(source []byte, uri string, trigger compilation.Trigger) LiveAnalysis {
	fp := fingerprint.Of(source)

	e.mu.Lock()
	e.uriToFingerprint[uri] = fp

	if full, ok := e.solcResultsCache[fp]; ok {
		e.mu.Unlock()
		return *full
	}

	sig, ok := e.signatureCache[fp]
	if !ok {
		built := buildSignatureView(source)
		sig = &built
		e.signatureCache[fp] = sig
	}
	e.pending[fp] = struct{}{}
	e.mu.Unlock()

	e.scheduleCompile(source, uri, trigger)

	return *sig
}

// scheduleCompile runs a compile in the background; its outcome surfaces
// through the subscribed compilation events, not through this call's return.
func (e *Engine) scheduleCompile(source []byte, uri string, trigger compilation.Trigger) {
	go func() {
		if _, err := e.compiler.Compile(context.Background(), source, uri, trigger); err != nil {
			log.Printf("background compile for %s failed: %v", uri, err)
		}
	}()
}

// buildSignatureView implements spec §4.6 step 3: a signature-only view built
// from a lightweight source scan (no compiler invocation), including the
// selector-collision diagnostic pass.
func buildSignatureView(source []byte) LiveAnalysis {
	scanned := scanSignatures(source)

	estimates := make(map[string]GasEstimate, len(scanned))
	bySelector := make(map[string][]scannedFunction)
	for _, fn := range scanned {
		// Zero-value GasValue, not selector.Infinite: the signature view has
		// no gas estimate at all yet (spec §4.6: "no gas"), distinct from a
		// function whose gas is genuinely unbounded.
		estimates[fn.Name] = GasEstimate{}
		if fn.Visibility == "public" || fn.Visibility == "external" {
			bySelector[fn.Selector] = append(bySelector[fn.Selector], fn)
		}
	}

	var diagnostics []solc.Diagnostic
	for sel, fns := range bySelector {
		if len(fns) < 2 {
			continue
		}
		for _, fn := range fns {
			diagnostics = append(diagnostics, solc.Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("selector %s collides between %d functions (this one: %s, line %d)", sel, len(fns), fn.Signature, fn.Line),
			})
		}
	}

	return LiveAnalysis{
		GasEstimates: estimates,
		Diagnostics:  diagnostics,
		IsPending:    true,
	}
}

// GetCachedAnalysis returns the most recently cached analysis for uri (full
// if present, else signature-only), or false if nothing has been analyzed
// for it yet.
func (e *Engine) GetCachedAnalysis(uri string) (LiveAnalysis, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fp, ok := e.uriToFingerprint[uri]
	if !ok {
		return LiveAnalysis{}, false
	}
	if full, ok := e.solcResultsCache[fp]; ok {
		return *full, true
	}
	if sig, ok := e.signatureCache[fp]; ok {
		return *sig, true
	}
	return LiveAnalysis{}, false
}

// UpdateCompilerSettings forwards to the underlying CompilationService,
// invalidating its full cache (spec §4.5).
func (e *Engine) UpdateCompilerSettings(settings solc.InputSettings) {
	e.compiler.UpdateSettings(settings)
}

// Stats is the façade's getStats() response (spec §6).
type Stats struct {
	CacheSize           int      `yaml:"cacheSize" console:"header:Cache Size"`
	CachedVersions      []string `yaml:"cachedVersions" console:"title:Cached Versions"`
	PendingCompilations int      `yaml:"pendingCompilations" console:"header:Pending Compilations"`
}

// GetStats returns a point-in-time snapshot of façade and service state.
func (e *Engine) GetStats() Stats {
	svcStats := e.compiler.GetStats()

	e.mu.Lock()
	pending := len(e.pending)
	e.mu.Unlock()

	return Stats{
		CacheSize:           svcStats.CacheSize,
		CachedVersions:      e.compiler.LoadedReleaseStrings(),
		PendingCompilations: pending,
	}
}
