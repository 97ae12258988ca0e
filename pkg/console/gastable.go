package console

import (
	"strings"

	"github.com/solgas/engine/pkg/selector"
)

// RenderGasTable renders a file's GasInfo entries (spec §4.4) as a table:
// one row per function, columns for its selector, visibility, gas estimate,
// and any unbounded-gas heuristic warnings.
func RenderGasTable(infos []selector.GasInfo) string {
	config := TableConfig{
		Title:   "Gas Estimates",
		Headers: []string{"Function", "Selector", "Visibility", "Gas", "Warnings"},
	}
	for _, info := range infos {
		config.Rows = append(config.Rows, []string{
			info.Name,
			info.Selector,
			info.Visibility,
			info.Gas.String(),
			strings.Join(info.Warnings, "; "),
		})
	}
	return RenderTable(config)
}
