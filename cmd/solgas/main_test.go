package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildStaticManifest_EmptyDirReturnsEmptyManifest(t *testing.T) {
	manifest := buildStaticManifest("")
	if len(manifest) != 0 {
		t.Fatalf("expected empty manifest for empty dir, got %d entries", len(manifest))
	}
}

func TestBuildStaticManifest_DiscoversReleaseBinaries(t *testing.T) {
	dir := t.TempDir()
	releaseDir := filepath.Join(dir, "v0.8.20+commit.a1b79de6")
	if err := os.MkdirAll(releaseDir, 0o755); err != nil {
		t.Fatal(err)
	}
	binaryPath := filepath.Join(releaseDir, "solc")
	if err := os.WriteFile(binaryPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	manifest := buildStaticManifest(dir)
	got, ok := manifest["v0.8.20+commit.a1b79de6"]
	if !ok {
		t.Fatalf("expected manifest to contain discovered release, got %v", manifest)
	}
	if got != binaryPath {
		t.Errorf("manifest path = %q, want %q", got, binaryPath)
	}
}

func TestBuildStaticManifest_SkipsDirsWithoutSolcBinary(t *testing.T) {
	dir := t.TempDir()
	releaseDir := filepath.Join(dir, "v0.8.19+commit.7dd6d404")
	if err := os.MkdirAll(releaseDir, 0o755); err != nil {
		t.Fatal(err)
	}

	manifest := buildStaticManifest(dir)
	if len(manifest) != 0 {
		t.Fatalf("expected no entries for a release dir missing its binary, got %v", manifest)
	}
}

func TestBuildStaticManifest_SkipsUnparsableDirNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "not-a-release"), 0o755); err != nil {
		t.Fatal(err)
	}

	manifest := buildStaticManifest(dir)
	if len(manifest) != 0 {
		t.Fatalf("expected unparsable dir name to be skipped, got %v", manifest)
	}
}

func TestResolveBundledBinary_PrefersExplicitFlag(t *testing.T) {
	old := solcBin
	solcBin = "/opt/solc/bin/solc"
	defer func() { solcBin = old }()

	if got := resolveBundledBinary(); got != "/opt/solc/bin/solc" {
		t.Errorf("resolveBundledBinary() = %q, want explicit --solc-bin value", got)
	}
}
