package console_test

import (
	"testing"

	"github.com/solgas/engine/pkg/console"
	"github.com/solgas/engine/pkg/selector"
	"github.com/stretchr/testify/assert"
)

func TestRenderGasTable_EmptyHasNoRows(t *testing.T) {
	out := console.RenderGasTable(nil)
	assert.Contains(t, out, "Gas Estimates")
}

func TestRenderGasTable_RendersFiniteAndInfiniteGas(t *testing.T) {
	infos := []selector.GasInfo{
		{Name: "transfer", Selector: "0xa9059cbb", Visibility: "external", Gas: selector.Finite(21064)},
		{Name: "withdraw", Selector: "0x2e1a7d4d", Visibility: "public", Gas: selector.Infinite, Warnings: []string{"loop bound depends on storage"}},
	}
	out := console.RenderGasTable(infos)
	assert.Contains(t, out, "transfer")
	assert.Contains(t, out, "21064")
	assert.Contains(t, out, "withdraw")
	assert.Contains(t, out, "∞")
	assert.Contains(t, out, "loop bound depends on storage")
}
