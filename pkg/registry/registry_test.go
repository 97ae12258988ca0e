package registry_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/solgas/engine/pkg/pragma"
	"github.com/solgas/engine/pkg/registry"
	"github.com/solgas/engine/pkg/solc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls     int32
	fail      bool
	delay     time.Duration
	compile   solc.Compiler
	available []pragma.ReleaseId
}

func (f *fakeSource) Fetch(ctx context.Context, release pragma.ReleaseId) (solc.Compiler, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail {
		return nil, errors.New("boom")
	}
	return f.compile, nil
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

func TestLoad_CachesAfterFirstLoad(t *testing.T) {
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	src := &fakeSource{}
	reg := registry.New(src, bundled, nil)

	release := mustRelease(t, "v0.8.20+commit.a1b79de6")
	h1, err := reg.Load(context.Background(), release)
	require.NoError(t, err)
	h2, err := reg.Load(context.Background(), release)
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.EqualValues(t, 1, src.calls)
}

func TestLoad_ConcurrentCallsShareOneLoad(t *testing.T) {
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	src := &fakeSource{delay: 20 * time.Millisecond}
	reg := registry.New(src, bundled, nil)
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")

	var wg sync.WaitGroup
	handles := make([]*registry.CompilerHandle, 10)
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := reg.Load(context.Background(), release)
			require.NoError(t, err)
			handles[i] = h
		}()
	}
	wg.Wait()

	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	assert.EqualValues(t, 1, src.calls)
}

func TestLoad_FailureIsNotCached(t *testing.T) {
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	src := &fakeSource{fail: true}
	reg := registry.New(src, bundled, nil)
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")

	_, err := reg.Load(context.Background(), release)
	assert.Error(t, err)

	_, err = reg.Load(context.Background(), release)
	assert.Error(t, err)
	assert.EqualValues(t, 2, src.calls)
}

func TestBundled_SynchronouslyAvailable(t *testing.T) {
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	reg := registry.New(&fakeSource{}, bundled, nil)
	assert.Equal(t, bundled, reg.Bundled().Release())
}

func TestCached_NilUntilLoaded(t *testing.T) {
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	src := &fakeSource{}
	reg := registry.New(src, bundled, nil)
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")

	assert.Nil(t, reg.Cached(release))
	_, err := reg.Load(context.Background(), release)
	require.NoError(t, err)
	assert.NotNil(t, reg.Cached(release))
}

func TestClear_ReloadsOnNextLoad(t *testing.T) {
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	src := &fakeSource{}
	reg := registry.New(src, bundled, nil)
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")

	_, err := reg.Load(context.Background(), release)
	require.NoError(t, err)
	reg.Clear()
	assert.Nil(t, reg.Cached(release))

	_, err = reg.Load(context.Background(), release)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls)
}

func TestList_IncludesBundledAndLoaded(t *testing.T) {
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	src := &fakeSource{}
	reg := registry.New(src, bundled, nil)
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")

	_, err := reg.Load(context.Background(), release)
	require.NoError(t, err)

	list := reg.List()
	assert.Len(t, list, 2)
}

func TestAvailable_IncludesUnloadedManifestReleases(t *testing.T) {
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	manifestOnly := mustRelease(t, "v0.8.25+commit.b61c2a91")
	src := &fakeSource{available: []pragma.ReleaseId{manifestOnly}}
	reg := registry.New(src, bundled, nil)

	available := reg.Available()
	assert.Len(t, available, 2)

	var strs []string
	for _, r := range available {
		strs = append(strs, r.String())
	}
	assert.Contains(t, strs, bundled.String())
	assert.Contains(t, strs, manifestOnly.String())

	// Never loaded: Available lists it from the manifest alone.
	assert.Nil(t, reg.Cached(manifestOnly))
}

func TestAvailable_DoesNotDuplicateLoadedManifestRelease(t *testing.T) {
	bundled := mustRelease(t, "v0.8.24+commit.e11b9ed9")
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")
	src := &fakeSource{available: []pragma.ReleaseId{release}}
	reg := registry.New(src, bundled, nil)

	_, err := reg.Load(context.Background(), release)
	require.NoError(t, err)

	assert.Len(t, reg.Available(), 2)
}
