package compilation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/solgas/engine/pkg/compilation"
	"github.com/solgas/engine/pkg/pragma"
	"github.com/solgas/engine/pkg/registry"
	"github.com/solgas/engine/pkg/solc"
	"github.com/solgas/engine/pkg/solc/solctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	compiler  solc.Compiler
	available []pragma.ReleaseId
}

func (f *fakeSource) Fetch(ctx context.Context, release pragma.ReleaseId) (solc.Compiler, error) {
	return f.compiler, nil
}

func (f *fakeSource) Available() []pragma.ReleaseId {
	return f.available
}

func mustRelease(t *testing.T, s string) pragma.ReleaseId {
	t.Helper()
	r, err := pragma.ParseReleaseId(s)
	require.NoError(t, err)
	return r
}

func newService(t *testing.T, compiler solc.Compiler) *compilation.CompilationService {
	t.Helper()
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	reg := registry.New(&fakeSource{compiler: compiler}, bundled, compiler)
	return compilation.New(reg, nil, solc.InputSettings{})
}

func TestCompile_Dedupe(t *testing.T) {
	fake := solctest.New()
	started := make(chan struct{})
	release := make(chan struct{})
	fake.Delay = func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}
	source := []byte("contract C { function a() external pure {} }")
	fake.Register(string(source), solctest.Fixture{
		AST: solctest.FunctionAST("a", "function", "external", "pure", "0:10:0", nil),
	})

	svc := newService(t, fake)
	events, unsub := svc.Subscribe()
	defer unsub()

	var wg sync.WaitGroup
	results := make([]*compilation.CompilationResult, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = svc.Compile(context.Background(), source, "u", compilation.TriggerFileSave)
	}()

	<-started
	go func() {
		defer wg.Done()
		results[1], errs[1] = svc.Compile(context.Background(), source, "u", compilation.TriggerFileSave)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Same(t, results[0], results[1])
	assert.False(t, results[0].Cached)
	assert.Equal(t, 1, fake.Calls)

	startCount := 0
	for {
		select {
		case e := <-events:
			if e.Kind == compilation.EventCompilationStart {
				startCount++
			}
		default:
			assert.Equal(t, 1, startCount)
			return
		}
	}
}

func TestCompile_PragmaChangeForcesRecomputeButKeepsOldEntry(t *testing.T) {
	fake := solctest.New()
	source1 := []byte("pragma solidity ^0.8.20;\ncontract C { function a() external pure {} }")
	source2 := []byte("pragma solidity ^0.8.0;\ncontract C { function a() external pure {} }")

	fake.Register(string(source1), solctest.Fixture{
		AST: solctest.FunctionAST("a", "function", "external", "pure", "0:10:0", nil),
	})
	fake.Register(string(source2), solctest.Fixture{
		AST: solctest.FunctionAST("a", "function", "external", "pure", "0:10:0", nil),
	})

	svc := newService(t, fake)

	r1, err := svc.Compile(context.Background(), source1, "u", compilation.TriggerFileSave)
	require.NoError(t, err)
	assert.False(t, r1.Cached)

	r1Again, err := svc.Compile(context.Background(), source1, "u", compilation.TriggerFileSave)
	require.NoError(t, err)
	assert.True(t, r1Again.Cached)

	r2, err := svc.Compile(context.Background(), source2, "u", compilation.TriggerPragmaChange)
	require.NoError(t, err)
	assert.False(t, r2.Cached)
	assert.NotEqual(t, r1.Fingerprint, r2.Fingerprint)

	// Both h1 and h2 remain cached: a pragma edit only forces a recompute of
	// its own (new) fingerprint, it doesn't evict unrelated entries (spec §8
	// Scenario E).
	stats := svc.GetStats()
	assert.Equal(t, 2, stats.CacheSize)

	r1Again2, err := svc.Compile(context.Background(), source1, "u", compilation.TriggerFileSave)
	require.NoError(t, err)
	assert.True(t, r1Again2.Cached)
}

func TestCompile_PragmaChangeBypassesCacheHitForSameFingerprint(t *testing.T) {
	fake := solctest.New()
	source := []byte("pragma solidity ^0.8.20;\ncontract C { function a() external pure {} }")
	fake.Register(string(source), solctest.Fixture{
		AST: solctest.FunctionAST("a", "function", "external", "pure", "0:10:0", nil),
	})

	svc := newService(t, fake)

	r1, err := svc.Compile(context.Background(), source, "u", compilation.TriggerFileSave)
	require.NoError(t, err)
	assert.False(t, r1.Cached)
	assert.Equal(t, 1, fake.Calls)

	r2, err := svc.Compile(context.Background(), source, "u", compilation.TriggerPragmaChange)
	require.NoError(t, err)
	assert.False(t, r2.Cached)
	assert.Equal(t, 2, fake.Calls)
}

func TestCompile_ResolvesPragmaToUnloadedManifestRelease(t *testing.T) {
	fake := solctest.New()
	source := []byte("pragma solidity ^0.8.0;\ncontract C { function a() external pure {} }")
	fake.Register(string(source), solctest.Fixture{
		AST: solctest.FunctionAST("a", "function", "external", "pure", "0:10:0", nil),
	})

	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	manifestRelease := mustRelease(t, "v0.8.25+commit.b61c2a91")
	src := &fakeSource{compiler: fake, available: []pragma.ReleaseId{manifestRelease}}
	reg := registry.New(src, bundled, fake)
	svc := compilation.New(reg, nil, solc.InputSettings{})

	events, unsub := svc.Subscribe()
	defer unsub()

	result, err := svc.Compile(context.Background(), source, "u", compilation.TriggerFileSave)
	require.NoError(t, err)
	assert.Equal(t, manifestRelease.String(), result.Version)

	var sawDownloading, sawReady bool
	for {
		select {
		case e := <-events:
			switch e.Kind {
			case compilation.EventVersionDownloading:
				sawDownloading = true
			case compilation.EventVersionReady:
				sawReady = true
			}
		default:
			assert.True(t, sawDownloading, "expected version:downloading for a release not yet loaded")
			assert.True(t, sawReady, "expected version:ready once loaded")
			return
		}
	}
}

func TestUpdateSettings_InvalidatesEntireCache(t *testing.T) {
	fake := solctest.New()
	source1 := []byte("contract C { function a() external pure {} }")
	source2 := []byte("contract C { function b() external pure {} }")
	fake.Register(string(source1), solctest.Fixture{
		AST: solctest.FunctionAST("a", "function", "external", "pure", "0:10:0", nil),
	})
	fake.Register(string(source2), solctest.Fixture{
		AST: solctest.FunctionAST("b", "function", "external", "pure", "0:10:0", nil),
	})

	svc := newService(t, fake)

	_, err := svc.Compile(context.Background(), source1, "u1", compilation.TriggerFileSave)
	require.NoError(t, err)
	_, err = svc.Compile(context.Background(), source2, "u2", compilation.TriggerFileSave)
	require.NoError(t, err)
	require.Equal(t, 2, svc.GetStats().CacheSize)

	svc.UpdateSettings(solc.InputSettings{})
	assert.Equal(t, 0, svc.GetStats().CacheSize)
}

func TestCompile_StaleRequestSuperseded(t *testing.T) {
	fake := solctest.New()
	buf1 := []byte("contract C { function a() external pure {} }")
	buf2 := []byte("contract C { function b() external pure {} }")
	fake.Register(string(buf1), solctest.Fixture{
		AST: solctest.FunctionAST("a", "function", "external", "pure", "0:10:0", nil),
	})
	fake.Register(string(buf2), solctest.Fixture{
		AST: solctest.FunctionAST("b", "function", "external", "pure", "0:10:0", nil),
	})

	svc := newService(t, fake)
	svc.SetDebounce(300 * time.Millisecond)

	var wg sync.WaitGroup
	var r1, r2 *compilation.CompilationResult
	var err1, err2 error

	wg.Add(1)
	go func() {
		defer wg.Done()
		r1, err1 = svc.Compile(context.Background(), buf1, "u", compilation.TriggerChange)
	}()

	time.Sleep(100 * time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		r2, err2 = svc.Compile(context.Background(), buf2, "u", compilation.TriggerChange)
	}()

	wg.Wait()

	assert.ErrorIs(t, err1, compilation.ErrSuperseded)
	assert.Nil(t, r1)
	require.NoError(t, err2)
	require.NotNil(t, r2)
	assert.Equal(t, 1, fake.Calls)
}
