package main

import (
	"context"
	"fmt"
	"os"

	"github.com/solgas/engine/pkg/compilation"
	"github.com/solgas/engine/pkg/console"
	"github.com/spf13/cobra"
)

// largeFileThreshold is the size above which --force's pragma-change
// recompute is expensive enough to warrant a confirmation prompt.
const largeFileThreshold = 32 * 1024

// NewCompileCommand creates the one-shot "compile" command.
func NewCompileCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "compile <file.sol>",
		Short: "Compile a Solidity source file and print gas estimates and diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			return runCompile(args[0], force, verbose)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Force a pragma-change recompute, bypassing the normal one-shot trigger")

	return cmd
}

func runCompile(path string, force, verbose bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("solgas: read %s: %w", path, err)
	}

	trigger := compilation.TriggerManual
	if force {
		if len(source) > largeFileThreshold {
			ok, err := console.ConfirmAction(
				fmt.Sprintf("%s is %s; force-recompute anyway?", path, console.FormatFileSize(int64(len(source)))),
				"Recompute",
				"Cancel",
			)
			if err != nil {
				return fmt.Errorf("solgas: confirmation prompt: %w", err)
			}
			if !ok {
				fmt.Fprintln(os.Stderr, console.FormatInfoMessage("compile cancelled"))
				return nil
			}
		}
		trigger = compilation.TriggerPragmaChange
	}

	svc, err := buildCompilationService()
	if err != nil {
		return err
	}

	result, err := svc.Compile(context.Background(), source, path, trigger)
	if err != nil {
		return fmt.Errorf("solgas: compile %s: %w", path, err)
	}

	if len(result.GasInfo) > 0 {
		fmt.Println(console.RenderGasTable(result.GasInfo))
	}

	fmt.Print(console.FormatDiagnosticsSummary(append(result.Errors, result.Warnings...), verbose))

	if len(result.Errors) > 0 {
		return fmt.Errorf("solgas: compilation failed with %d error(s)", len(result.Errors))
	}
	return nil
}
