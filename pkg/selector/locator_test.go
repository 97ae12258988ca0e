package selector_test

import (
	"testing"

	"github.com/solgas/engine/pkg/selector"
	"github.com/stretchr/testify/assert"
)

func TestLineTable_Line(t *testing.T) {
	src := []byte("line1\nline2\nline3")
	table := selector.NewLineTable(src)

	assert.Equal(t, 1, table.Line(0))
	assert.Equal(t, 1, table.Line(4))
	assert.Equal(t, 2, table.Line(6))
	assert.Equal(t, 3, table.Line(12))
}

func TestParseSrc(t *testing.T) {
	r, ok := selector.ParseSrc("10:5:0")
	assert.True(t, ok)
	assert.Equal(t, 10, r.Start)
	assert.Equal(t, 5, r.Length)
	assert.Equal(t, 15, r.End())
}

func TestParseSrc_Malformed(t *testing.T) {
	_, ok := selector.ParseSrc("not-a-src")
	assert.False(t, ok)
}

func TestSrcRange_Slice(t *testing.T) {
	src := []byte("0123456789")
	r := selector.SrcRange{Start: 2, Length: 3}
	assert.Equal(t, []byte("234"), r.Slice(src))
}

func TestSrcRange_Slice_ClampsOutOfBounds(t *testing.T) {
	src := []byte("0123456789")
	r := selector.SrcRange{Start: 8, Length: 100}
	assert.Equal(t, []byte("89"), r.Slice(src))
}
