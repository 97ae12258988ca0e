package fingerprint_test

import (
	"testing"

	"github.com/solgas/engine/pkg/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf_Deterministic(t *testing.T) {
	src := []byte("pragma solidity ^0.8.20; contract C {}")
	a := fingerprint.Of(src)
	b := fingerprint.Of(append([]byte(nil), src...))
	assert.Equal(t, a, b)
}

func TestOf_DifferentContentDifferentFingerprint(t *testing.T) {
	a := fingerprint.Of([]byte("contract A {}"))
	b := fingerprint.Of([]byte("contract B {}"))
	assert.NotEqual(t, a, b)
}

func TestOf_EmptyIsNotZero(t *testing.T) {
	empty := fingerprint.Of([]byte{})
	require.False(t, empty.IsZero(), "fingerprint of empty buffer must not equal the Zero sentinel")
}

func TestString_IsLowercaseHex(t *testing.T) {
	f := fingerprint.Of([]byte("contract C {}"))
	s := f.String()
	assert.Len(t, s, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", s)
}

func TestZero_IsZero(t *testing.T) {
	assert.True(t, fingerprint.Zero.IsZero())
}
