// Package registry manages the pool of loaded Solidity compiler releases:
// loading a release on first demand, deduplicating concurrent loads for the
// same release, and serving the always-available bundled default
// synchronously (spec §4.3).
package registry

import (
	"context"
	"sync"

	"github.com/solgas/engine/pkg/logger"
	"github.com/solgas/engine/pkg/pragma"
	"github.com/solgas/engine/pkg/solc"
)

var log = logger.New("registry:compiler")

// Source fetches the concrete Compiler implementation for a release that
// isn't already loaded. A Source may hit the network, the filesystem, or
// whatever else a concrete variant needs; the registry only knows it can fail.
type Source interface {
	Fetch(ctx context.Context, release pragma.ReleaseId) (solc.Compiler, error)

	// Available lists the releases this source can Fetch, whether or not
	// they've been loaded yet (spec §6 CompilerRegistrySource.available()).
	// A source with no fixed catalog (e.g. a network downloader accepting
	// any release string) may return nil.
	Available() []pragma.ReleaseId
}

// CompilerHandle is a reference to a loaded compiler bound to one release.
// Immutable after construction, safe to share and invoke concurrently
// (spec §3).
type CompilerHandle struct {
	release  pragma.ReleaseId
	compiler solc.Compiler
}

// Release returns the ReleaseId this handle is bound to.
func (h *CompilerHandle) Release() pragma.ReleaseId { return h.release }

// Compile delegates to the underlying compiler.
func (h *CompilerHandle) Compile(ctx context.Context, input *solc.Input, resolver solc.ImportResolver) (*solc.Output, error) {
	return h.compiler.Compile(ctx, input, resolver)
}

type loadFuture struct {
	done   chan struct{}
	handle *CompilerHandle
	err    error
}

// CompilerRegistry is the single point of access for loaded compiler
// releases.
type CompilerRegistry struct {
	mu       sync.Mutex
	source   Source
	bundled  *CompilerHandle
	handles  map[string]*CompilerHandle
	inFlight map[string]*loadFuture
}

// New returns a registry backed by source, with bundledRelease always
// served synchronously by Bundled.
func New(source Source, bundledRelease pragma.ReleaseId, bundledCompiler solc.Compiler) *CompilerRegistry {
	bundled := &CompilerHandle{release: bundledRelease, compiler: bundledCompiler}
	return &CompilerRegistry{
		source:   source,
		bundled:  bundled,
		handles:  map[string]*CompilerHandle{bundledRelease.String(): bundled},
		inFlight: make(map[string]*loadFuture),
	}
}

// Bundled returns the always-available default compiler, synchronously.
func (r *CompilerRegistry) Bundled() *CompilerHandle {
	return r.bundled
}

// Cached returns the already-loaded handle for release, or nil if it hasn't
// been loaded yet.
func (r *CompilerRegistry) Cached(release pragma.ReleaseId) *CompilerHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[release.String()]
}

// List returns every release currently loaded.
func (r *CompilerRegistry) List() []pragma.ReleaseId {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pragma.ReleaseId, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h.release)
	}
	return out
}

// Available returns every release a pragma may resolve to: everything the
// source's manifest advertises, unioned with everything already loaded
// (notably the bundled release, which the source never needs to advertise).
// This is the set pragma.Resolve must see — List alone only contains
// already-loaded releases, which would make a manifest release unreachable
// since it's loaded *after* being resolved, not before (spec §6).
func (r *CompilerRegistry) Available() []pragma.ReleaseId {
	seen := make(map[string]pragma.ReleaseId)

	r.mu.Lock()
	for _, h := range r.handles {
		seen[h.release.String()] = h.release
	}
	r.mu.Unlock()

	for _, release := range r.source.Available() {
		seen[release.String()] = release
	}

	out := make([]pragma.ReleaseId, 0, len(seen))
	for _, release := range seen {
		out = append(out, release)
	}
	return out
}

// Clear releases all non-bundled handles; a subsequent Load reloads them.
func (r *CompilerRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = map[string]*CompilerHandle{r.bundled.release.String(): r.bundled}
}

// Load returns the handle for release, loading it via Source if necessary.
// Concurrent calls for the same release share one in-flight load; a failed
// load is never cached and the next call retries (spec §4.3).
func (r *CompilerRegistry) Load(ctx context.Context, release pragma.ReleaseId) (*CompilerHandle, error) {
	key := release.String()

	r.mu.Lock()
	if h, ok := r.handles[key]; ok {
		r.mu.Unlock()
		return h, nil
	}
	if f, ok := r.inFlight[key]; ok {
		r.mu.Unlock()
		<-f.done
		return f.handle, f.err
	}
	f := &loadFuture{done: make(chan struct{})}
	r.inFlight[key] = f
	r.mu.Unlock()

	log.Printf("loading compiler release %s", key)
	compiler, err := r.source.Fetch(ctx, release)

	r.mu.Lock()
	delete(r.inFlight, key)
	if err != nil {
		r.mu.Unlock()
		f.err = err
		close(f.done)
		log.Printf("load failed for %s: %v", key, err)
		return nil, err
	}
	h := &CompilerHandle{release: release, compiler: compiler}
	r.handles[key] = h
	r.mu.Unlock()

	f.handle = h
	close(f.done)
	return h, nil
}
