package solc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"

	"github.com/solgas/engine/pkg/logger"
)

var log = logger.New("solc:process")

// importPattern finds `import "path";` and `import {X} from "path";` style
// directives well enough to discover sources a real solc invocation would
// otherwise reject as unresolved.
var importPattern = regexp.MustCompile(`import\s+(?:\{[^}]*\}\s+from\s+)?["']([^"']+)["']`)

// ProcessCompiler invokes a real solc binary via the Standard JSON CLI
// protocol ("solc --standard-json"). One ProcessCompiler is bound to exactly
// one binary path, which in turn is bound to exactly one ReleaseId by the
// registry that constructed it (spec §3: CompilerHandle is immutable after
// load, thread-safe to invoke concurrently — solc's CLI is stateless per
// invocation, so concurrent Compile calls on the same ProcessCompiler are
// safe without extra locking).
type ProcessCompiler struct {
	binaryPath string
}

// NewProcessCompiler returns a Compiler backed by the solc binary at binaryPath.
func NewProcessCompiler(binaryPath string) *ProcessCompiler {
	return &ProcessCompiler{binaryPath: binaryPath}
}

// Compile resolves any imports missing from input.Sources via resolver (a
// fixed-point loop, since a resolved import may itself import something
// new), then shells out to the solc binary once with the now-complete input.
//
// Real solc processes can't be called back into synchronously mid-run the
// way an in-process compiler could; pre-resolving imports before invocation
// is the idiomatic adaptation of spec §6's "invoked synchronously from the
// compiler" contract to an external-process backend.
func (c *ProcessCompiler) Compile(ctx context.Context, input *Input, resolver ImportResolver) (*Output, error) {
	if err := resolveImports(input, resolver); err != nil {
		return &Output{Errors: []Diagnostic{{
			Severity: "error",
			Message:  err.Error(),
		}}}, nil
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("solc: marshal input: %w", err)
	}

	log.Printf("invoking %s --standard-json", c.binaryPath)

	cmd := exec.CommandContext(ctx, c.binaryPath, "--standard-json")
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// solc exits non-zero on compile errors too; its diagnostics are in
		// stdout either way, so only treat this as CompilerInvocationFailed
		// when stdout isn't valid JSON at all.
		if stdout.Len() == 0 {
			return nil, fmt.Errorf("solc: invocation failed: %w: %s", err, stderr.String())
		}
	}

	if err := validateOutput(stdout.Bytes()); err != nil {
		return nil, fmt.Errorf("solc: invocation failed: %w", err)
	}

	var out Output
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("solc: invocation failed: parse output: %w", err)
	}
	return &out, nil
}

func resolveImports(input *Input, resolver ImportResolver) error {
	if resolver == nil {
		return nil
	}

	for {
		missing := missingImports(input)
		if len(missing) == 0 {
			return nil
		}
		for _, path := range missing {
			contents, err := resolver(path)
			if err != nil {
				return fmt.Errorf("import %q: %w", path, err)
			}
			input.Sources[path] = InputSource{Content: contents}
		}
	}
}

func missingImports(input *Input) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, src := range input.Sources {
		for _, m := range importPattern.FindAllStringSubmatch(src.Content, -1) {
			path := m[1]
			if _, ok := input.Sources[path]; ok {
				continue
			}
			if seen[path] {
				continue
			}
			seen[path] = true
			missing = append(missing, path)
		}
	}
	return missing
}
