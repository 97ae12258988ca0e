package solc

import "context"

// ImportResolver is invoked synchronously by a Compiler for each import path
// it cannot find among the sources already supplied in the Input. The core
// never inspects import paths itself; it only forwards this callback.
type ImportResolver func(importPath string) (contents string, err error)

// Compiler is the narrow contract the orchestrator programs against. Each
// loaded compiler release satisfies this interface; the core never branches
// on which concrete implementation it holds (design note, spec §9).
type Compiler interface {
	// Compile runs a single Standard JSON compilation. resolver may be nil,
	// in which case unresolved imports surface as compiler diagnostics.
	Compile(ctx context.Context, input *Input, resolver ImportResolver) (*Output, error)
}
