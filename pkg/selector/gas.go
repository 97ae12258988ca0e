package selector

import (
	"sort"
	"strconv"
	"strings"

	"github.com/solgas/engine/pkg/solc"
)

// GasValue is either a finite gas cost or the compiler's "infinite" sentinel
// (spec §9 Open Question: modeled as an explicit sum type rather than a
// magic numeric value, so callers can't accidentally arithmetic on infinity).
type GasValue struct {
	finite   uint64
	infinite bool
}

// Finite returns a GasValue holding a concrete gas amount.
func Finite(n uint64) GasValue { return GasValue{finite: n} }

// Infinite is the GasValue for a function solc could not bound statically.
var Infinite = GasValue{infinite: true}

// IsInfinite reports whether this value is the unbounded sentinel.
func (g GasValue) IsInfinite() bool { return g.infinite }

// Uint64 returns the finite gas amount; it is 0 when IsInfinite is true.
func (g GasValue) Uint64() uint64 { return g.finite }

// String renders the value the way a diagnostic or table cell would: the
// decimal amount, or "∞".
func (g GasValue) String() string {
	if g.infinite {
		return "∞"
	}
	return strconv.FormatUint(g.finite, 10)
}

// attachGas resolves a function's gas estimate from the compiler's
// evm.gasEstimates, in the lookup order spec §4.4 prescribes: exact external
// key, exact internal key, external key with a matching "name(" prefix,
// internal key with a matching "name(" prefix. Map iteration order is
// undefined, so prefix scans pick the lexicographically smallest matching
// key for determinism. Returns Finite(0) when nothing matches.
func attachGas(canonicalSig, name string, estimates *solc.GasEstimates) GasValue {
	if estimates == nil {
		return Finite(0)
	}
	if v, ok := estimates.External[canonicalSig]; ok {
		return parseGas(v)
	}
	if v, ok := estimates.Internal[canonicalSig]; ok {
		return parseGas(v)
	}
	prefix := name + "("
	if v, ok := prefixMatch(estimates.External, prefix); ok {
		return parseGas(v)
	}
	if v, ok := prefixMatch(estimates.Internal, prefix); ok {
		return parseGas(v)
	}
	return Finite(0)
}

func prefixMatch(m map[string]string, prefix string) (string, bool) {
	var keys []string
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return m[keys[0]], true
}

func parseGas(raw string) GasValue {
	if raw == "infinite" {
		return Infinite
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return Finite(0)
	}
	return Finite(n)
}
