package compilation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/solgas/engine/pkg/fingerprint"
	"github.com/solgas/engine/pkg/logger"
	"github.com/solgas/engine/pkg/pragma"
	"github.com/solgas/engine/pkg/registry"
	"github.com/solgas/engine/pkg/selector"
	"github.com/solgas/engine/pkg/solc"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/yaml.v3"
)

var log = logger.New("compilation:service")

// ErrSuperseded is returned to a Compile caller whose debounce window was
// cancelled by a newer request for the same uri (spec §3 Lifecycles: pending
// debounce timers are cancelled on fingerprint change).
var ErrSuperseded = errors.New("compilation: superseded by a newer request")

const (
	defaultDebounce = 300 * time.Millisecond
	minDebounce     = 100 * time.Millisecond
	maxDebounce     = 1000 * time.Millisecond

	defaultTTL      = 5 * time.Minute
	defaultCapacity = 100

	maxConcurrentCompiles = 8
)

type cacheEntry struct {
	result    *CompilationResult
	expiresAt time.Time
}

type compileFuture struct {
	done   chan struct{}
	result *CompilationResult
	err    error
}

type pendingDebounce struct {
	cancelCh chan struct{}
}

// CompilationService is the single orchestrator a driver (editor, CLI, MCP
// tool) submits compile requests to.
type CompilationService struct {
	registry       *registry.CompilerRegistry
	importResolver solc.ImportResolver

	debounce     time.Duration
	debounceMu   sync.Mutex
	pendingByURI map[string]*pendingDebounce

	settingsMu sync.RWMutex
	settings   solc.InputSettings

	cacheMu   sync.Mutex
	fullCache map[fingerprint.Fingerprint]*cacheEntry
	ttl       time.Duration
	capacity  int

	inFlightMu sync.Mutex
	inFlight   map[fingerprint.Fingerprint]*compileFuture

	subMu       sync.RWMutex
	subscribers map[chan Event]struct{}

	workers *pool.Pool
}

// New builds a CompilationService bound to reg, with default debounce (300ms),
// cache TTL (5 minutes) and capacity (100).
func New(reg *registry.CompilerRegistry, importResolver solc.ImportResolver, settings solc.InputSettings) *CompilationService {
	return &CompilationService{
		registry:       reg,
		importResolver: importResolver,
		debounce:       defaultDebounce,
		pendingByURI:   make(map[string]*pendingDebounce),
		settings:       settings,
		fullCache:      make(map[fingerprint.Fingerprint]*cacheEntry),
		ttl:            defaultTTL,
		capacity:       defaultCapacity,
		inFlight:       make(map[fingerprint.Fingerprint]*compileFuture),
		subscribers:    make(map[chan Event]struct{}),
		workers:        pool.New().WithMaxGoroutines(maxConcurrentCompiles),
	}
}

// SetDebounce overrides the "change"-trigger debounce window, clamped to
// [100ms, 1000ms].
func (s *CompilationService) SetDebounce(d time.Duration) {
	if d < minDebounce {
		d = minDebounce
	}
	if d > maxDebounce {
		d = maxDebounce
	}
	s.debounceMu.Lock()
	s.debounce = d
	s.debounceMu.Unlock()
}

// UpdateSettings replaces the compiler settings used for future compiles and
// invalidates the full cache, since every cached result was produced under
// the old settings (spec §3: "Changing any setting invalidates the full-analysis cache").
func (s *CompilationService) UpdateSettings(settings solc.InputSettings) {
	s.settingsMu.Lock()
	s.settings = settings
	s.settingsMu.Unlock()
	s.invalidateCache()
}

func (s *CompilationService) getSettings() solc.InputSettings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

// Subscribe registers a new listener for service events. The returned
// unsubscribe func must be called when the listener is done.
func (s *CompilationService) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
}

func (s *CompilationService) emit(e Event) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for ch := range s.subscribers {
		select {
		case ch <- e:
		default:
			log.Printf("dropping event %s for %s: subscriber channel full", e.Kind, e.URI)
		}
	}
}

// Compile runs (or waits for, or retrieves from cache) the compilation of
// source at uri, having arrived via trigger.
func (s *CompilationService) Compile(ctx context.Context, source []byte, uri string, trigger Trigger) (*CompilationResult, error) {
	fp := fingerprint.Of(source)

	if trigger == TriggerSettingsChange {
		// Old settings invalidate every cached result regardless of fingerprint.
		s.invalidateCache()
	} else if trigger != TriggerPragmaChange {
		// A pragma change always recomputes for its (new) fingerprint, but
		// leaves unrelated cache entries — including the pre-edit
		// fingerprint's — in place (spec §8 Scenario E).
		if cached := s.getCached(fp); cached != nil {
			return cached, nil
		}
	}

	if err := s.waitDebounce(ctx, uri, s.debounceFor(trigger)); err != nil {
		return nil, err
	}

	return s.runSingleFlight(ctx, source, fp, uri, trigger)
}

func (s *CompilationService) debounceFor(trigger Trigger) time.Duration {
	if trigger != TriggerChange {
		return 0
	}
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	return s.debounce
}

func (s *CompilationService) waitDebounce(ctx context.Context, uri string, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	cancelCh := make(chan struct{})
	s.debounceMu.Lock()
	if prev, ok := s.pendingByURI[uri]; ok {
		close(prev.cancelCh)
	}
	s.pendingByURI[uri] = &pendingDebounce{cancelCh: cancelCh}
	s.debounceMu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-cancelCh:
		return ErrSuperseded
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CompilationService) runSingleFlight(ctx context.Context, source []byte, fp fingerprint.Fingerprint, uri string, trigger Trigger) (*CompilationResult, error) {
	s.inFlightMu.Lock()
	if f, ok := s.inFlight[fp]; ok {
		s.inFlightMu.Unlock()
		<-f.done
		return f.result, f.err
	}
	f := &compileFuture{done: make(chan struct{})}
	s.inFlight[fp] = f
	s.inFlightMu.Unlock()

	s.emit(Event{Kind: EventCompilationStart, URI: uri, Fingerprint: fp})

	s.workers.Go(func() {
		result, err := s.doCompile(ctx, source, fp, uri, trigger)

		s.inFlightMu.Lock()
		delete(s.inFlight, fp)
		s.inFlightMu.Unlock()

		f.result, f.err = result, err
		close(f.done)

		if err != nil {
			s.emit(Event{Kind: EventCompilationError, URI: uri, Fingerprint: fp, Err: err})
			return
		}
		s.putCache(fp, result)
		s.emit(Event{Kind: EventCompilationSuccess, URI: uri, Fingerprint: fp, Result: result})
	})

	<-f.done
	return f.result, f.err
}

func (s *CompilationService) doCompile(ctx context.Context, source []byte, fp fingerprint.Fingerprint, uri string, trigger Trigger) (*CompilationResult, error) {
	bundled := s.registry.Bundled().Release()

	resolution, err := pragma.Resolve(source, s.registry.Available(), bundled)
	if errors.Is(err, pragma.ErrNoMatch) {
		resolution = pragma.Resolution{Release: bundled, IsExact: false}
	} else if err != nil {
		return nil, err
	}

	alreadyLoaded := s.registry.Cached(resolution.Release) != nil
	if !alreadyLoaded {
		s.emit(Event{Kind: EventVersionDownloading, URI: uri, Fingerprint: fp})
	}
	handle, err := s.registry.Load(ctx, resolution.Release)
	if err != nil {
		return nil, err
	}
	if !alreadyLoaded {
		s.emit(Event{Kind: EventVersionReady, URI: uri, Fingerprint: fp})
	}

	input := solc.NewInput(uri, source, s.getSettings())
	output, err := handle.Compile(ctx, input, s.importResolver)
	if err != nil {
		return nil, err
	}

	var ast []byte
	if out, ok := output.Sources[uri]; ok {
		ast = out.AST
	}

	var bytecode, deployedBytecode string
	for _, contract := range output.Contracts[uri] {
		bytecode = contract.EVM.Bytecode.Object
		deployedBytecode = contract.EVM.DeployedBytecode.Object
		break
	}

	gasInfos := selector.Analyze(source, ast, estimatesFor(output, uri))

	var errs, warns []solc.Diagnostic
	for _, d := range output.Errors {
		if d.IsError() {
			errs = append(errs, d)
		} else {
			warns = append(warns, d)
		}
	}

	return &CompilationResult{
		CompilationOutput: CompilationOutput{
			Success:          len(errs) == 0,
			Version:          resolution.Release.String(),
			GasInfo:          gasInfos,
			Errors:           errs,
			Warnings:         warns,
			AST:              ast,
			Bytecode:         bytecode,
			DeployedBytecode: deployedBytecode,
		},
		URI:         uri,
		Timestamp:   time.Now(),
		Trigger:     trigger,
		Fingerprint: fp,
		Cached:      false,
	}, nil
}

func estimatesFor(output *solc.Output, uri string) *solc.GasEstimates {
	for _, contract := range output.Contracts[uri] {
		if contract.EVM.GasEstimates != nil {
			return contract.EVM.GasEstimates
		}
	}
	return nil
}

func (s *CompilationService) getCached(fp fingerprint.Fingerprint) *CompilationResult {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	entry, ok := s.fullCache[fp]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.fullCache, fp)
		return nil
	}
	cached := *entry.result
	cached.Cached = true
	return &cached
}

func (s *CompilationService) putCache(fp fingerprint.Fingerprint, result *CompilationResult) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.fullCache[fp] = &cacheEntry{result: result, expiresAt: time.Now().Add(s.ttl)}
	s.evictOldestLocked()
}

// evictionBatchFraction is the share of the cache evicted in one pass once
// it exceeds capacity (spec §4.5: "evict the oldest-by-timestamp 20% in one
// pass (batched eviction amortizes the scan)").
const evictionBatchFraction = 0.2

// evictOldestLocked batch-evicts the oldest 20% of entries by expiry order
// once the cache exceeds capacity. Caller must hold cacheMu.
func (s *CompilationService) evictOldestLocked() {
	if len(s.fullCache) <= s.capacity {
		return
	}

	type keyed struct {
		fp        fingerprint.Fingerprint
		expiresAt time.Time
	}
	entries := make([]keyed, 0, len(s.fullCache))
	for fp, e := range s.fullCache {
		entries = append(entries, keyed{fp, e.expiresAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].expiresAt.Before(entries[j].expiresAt) })

	batch := int(float64(len(entries)) * evictionBatchFraction)
	if batch < 1 {
		batch = 1
	}
	for i := 0; i < batch; i++ {
		delete(s.fullCache, entries[i].fp)
	}
}

func (s *CompilationService) invalidateCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.fullCache = make(map[fingerprint.Fingerprint]*cacheEntry)
}

// Stats is a point-in-time snapshot of service bookkeeping, suitable for a
// getStats() style CLI or MCP tool response.
type Stats struct {
	CacheSize      int `yaml:"cacheSize" console:"header:Cache Size"`
	InFlight       int `yaml:"inFlight" console:"header:In Flight"`
	LoadedReleases int `yaml:"loadedReleases" console:"header:Loaded Releases"`
}

// GetStats returns a snapshot of the current cache/in-flight/registry sizes.
func (s *CompilationService) GetStats() Stats {
	s.cacheMu.Lock()
	cacheSize := len(s.fullCache)
	s.cacheMu.Unlock()

	s.inFlightMu.Lock()
	inFlight := len(s.inFlight)
	s.inFlightMu.Unlock()

	return Stats{
		CacheSize:      cacheSize,
		InFlight:       inFlight,
		LoadedReleases: len(s.registry.List()),
	}
}

// StatsYAML renders GetStats as YAML. The MCP get_stats tool does not use
// it; that tool reports stats as JSON.
func (s *CompilationService) StatsYAML() ([]byte, error) {
	return yaml.Marshal(s.GetStats())
}

// LoadedReleaseStrings returns the String() form of every release currently
// loaded in the registry, for callers (e.g. AnalysisEngine.GetStats) that
// want to report cachedVersions without depending on pkg/registry directly.
func (s *CompilationService) LoadedReleaseStrings() []string {
	releases := s.registry.List()
	out := make([]string, len(releases))
	for i, r := range releases {
		out[i] = r.String()
	}
	return out
}
