package registry_test

import (
	"context"
	"testing"

	"github.com/solgas/engine/pkg/pragma"
	"github.com/solgas/engine/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticManifestSource_KnownRelease(t *testing.T) {
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")
	src := registry.NewStaticManifestSource(map[string]string{
		release.String(): "/opt/solc/0.8.20",
	})

	compiler, err := src.Fetch(context.Background(), release)
	require.NoError(t, err)
	assert.NotNil(t, compiler)
}

func TestStaticManifestSource_UnknownRelease(t *testing.T) {
	src := registry.NewStaticManifestSource(nil)
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")

	_, err := src.Fetch(context.Background(), release)
	assert.Error(t, err)
}

func TestProcessSource_Fetch(t *testing.T) {
	called := false
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")
	src := registry.NewProcessSource(func(ctx context.Context, r pragma.ReleaseId) (string, error) {
		called = true
		assert.Equal(t, release, r)
		return "/opt/solc/bin", nil
	})

	compiler, err := src.Fetch(context.Background(), release)
	require.NoError(t, err)
	assert.NotNil(t, compiler)
	assert.True(t, called)
}

func TestProcessSource_DownloadError(t *testing.T) {
	release := mustRelease(t, "v0.8.20+commit.a1b79de6")
	src := registry.NewProcessSource(func(ctx context.Context, r pragma.ReleaseId) (string, error) {
		return "", assert.AnError
	})

	_, err := src.Fetch(context.Background(), release)
	assert.Error(t, err)
}
