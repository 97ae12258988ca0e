package registry

import (
	"context"
	"fmt"

	"github.com/solgas/engine/pkg/pragma"
	"github.com/solgas/engine/pkg/ratelimit"
	"github.com/solgas/engine/pkg/solc"
)

// StaticManifestSource resolves releases against a fixed table of
// already-downloaded binary paths — the variant used in environments where
// the set of available compiler releases is pinned ahead of time (e.g. a CI
// image that bundles a handful of pre-vetted solc binaries).
type StaticManifestSource struct {
	binaries map[string]string // release.String() -> binary path
}

// NewStaticManifestSource builds a source over a fixed release->path table.
func NewStaticManifestSource(binaries map[string]string) *StaticManifestSource {
	return &StaticManifestSource{binaries: binaries}
}

// Fetch implements Source.
func (s *StaticManifestSource) Fetch(ctx context.Context, release pragma.ReleaseId) (solc.Compiler, error) {
	path, ok := s.binaries[release.String()]
	if !ok {
		return nil, fmt.Errorf("registry: release %s not in static manifest", release)
	}
	return solc.NewProcessCompiler(path), nil
}

// Available implements Source: every release the manifest has a binary for,
// whether or not it has been Fetch'd yet.
func (s *StaticManifestSource) Available() []pragma.ReleaseId {
	out := make([]pragma.ReleaseId, 0, len(s.binaries))
	for key := range s.binaries {
		release, err := pragma.ParseReleaseId(key)
		if err != nil {
			continue
		}
		out = append(out, release)
	}
	return out
}

// Downloader fetches a compiler binary for a release, returning the local
// path it was installed to.
type Downloader func(ctx context.Context, release pragma.ReleaseId) (binaryPath string, err error)

// ProcessSource fetches releases on demand from a remote registry, rate
// limiting how often it will start a new download so a burst of unrelated
// pragma resolutions can't saturate outbound bandwidth.
type ProcessSource struct {
	download Downloader
}

// NewProcessSource builds a source that calls download to materialize a
// compiler binary, throttled by the shared compiler-download rate limiter.
func NewProcessSource(download Downloader) *ProcessSource {
	return &ProcessSource{download: download}
}

// Fetch implements Source.
func (s *ProcessSource) Fetch(ctx context.Context, release pragma.ReleaseId) (solc.Compiler, error) {
	if err := ratelimit.Wait(ctx, ratelimit.OperationCompilerDownload); err != nil {
		return nil, fmt.Errorf("registry: rate limited fetching %s: %w", release, err)
	}
	path, err := s.download(ctx, release)
	if err != nil {
		return nil, fmt.Errorf("registry: download %s: %w", release, err)
	}
	return solc.NewProcessCompiler(path), nil
}

// Available implements Source. A network-backed source has no fixed catalog
// to enumerate ahead of a request; the registry still resolves pragmas
// against whatever it has already loaded plus the bundled release.
func (s *ProcessSource) Available() []pragma.ReleaseId {
	return nil
}
