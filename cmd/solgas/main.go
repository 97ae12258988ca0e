package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/solgas/engine/pkg/compilation"
	"github.com/solgas/engine/pkg/config"
	"github.com/solgas/engine/pkg/console"
	"github.com/solgas/engine/pkg/logger"
	"github.com/solgas/engine/pkg/pragma"
	"github.com/solgas/engine/pkg/registry"
	"github.com/solgas/engine/pkg/solc"
	"github.com/spf13/cobra"
)

var log = logger.New("cmd:solgas")

// version is set at build time via -ldflags, the same hook the teacher uses.
var version = "dev"

const cliName = "solgas"

// defaultBundledRelease is the release solgas always has available, without
// waiting on any registry load (spec §4.3 bundled()). It never changes at
// runtime; the solc binary behind it is whatever --solc-bin resolves to.
var defaultBundledRelease = mustParseRelease("v0.8.20+commit.a1b79de6")

func mustParseRelease(s string) pragma.ReleaseId {
	r, err := pragma.ParseReleaseId(s)
	if err != nil {
		panic(err)
	}
	return r
}

var rootCmd = &cobra.Command{
	Use:     cliName,
	Short:   "Real-time gas estimation and diagnostics for Solidity source",
	Version: version,
	Long: `solgas analyzes Solidity source as it's edited: pragma-driven compiler
selection, per-function gas estimates and selector-collision diagnostics,
without waiting on a full build.

Common Tasks:
  solgas compile contract.sol   # One-shot compile and gas report
  solgas watch ./contracts      # Live recompile on file change
  solgas mcp                    # Expose analysis as MCP tools

For detailed help on any command, use:
  solgas [command] --help`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var (
	solcDir     string
	solcBin     string
	settingsURI string
)

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "analysis", Title: "Analysis Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "development", Title: "Development Commands:"})

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output showing detailed information")
	rootCmd.PersistentFlags().StringVar(&solcDir, "solc-dir", "", "Directory of pre-installed solc binaries, named <release>/solc (static manifest source)")
	rootCmd.PersistentFlags().StringVar(&solcBin, "solc-bin", "", "Path to the solc binary used as the bundled default compiler (defaults to $PATH lookup)")
	rootCmd.PersistentFlags().StringVar(&settingsURI, "settings", "", "Path to a CompilerSettings YAML file (defaults built in if absent)")

	rootCmd.SetOut(os.Stderr)
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s\n%s\n",
		console.FormatInfoMessage(fmt.Sprintf("%s version {{.Version}}", cliName)),
		console.FormatInfoMessage("Real-time Solidity gas estimation engine")))

	versionCmd := NewVersionCommand()
	compileCmd := NewCompileCommand()
	watchCmd := NewWatchCommand()
	mcpCmd := NewMCPCommand()

	compileCmd.GroupID = "analysis"
	watchCmd.GroupID = "analysis"
	mcpCmd.GroupID = "development"

	rootCmd.AddCommand(versionCmd, compileCmd, watchCmd, mcpCmd)
}

func main() {
	SetVersionInfo(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}

// resolveBundledBinary returns the binary path the bundled compiler shells
// out to: --solc-bin if given, else the first "solc" found on $PATH. A
// missing binary isn't fatal here; ProcessCompiler.Compile surfaces it as a
// CompilerInvocationFailed error only when something actually tries to
// compile (spec's Non-goal on network-level compiler downloads means solgas
// never fetches one itself).
func resolveBundledBinary() string {
	if solcBin != "" {
		return solcBin
	}
	if path, err := exec.LookPath("solc"); err == nil {
		return path
	}
	return "solc"
}

// buildStaticManifest scans --solc-dir for <release>/solc binaries and
// returns the release->path table a registry.StaticManifestSource serves
// (spec §4.3's CompilerRegistrySource variants, SUPPLEMENTED section).
func buildStaticManifest(dir string) map[string]string {
	manifest := make(map[string]string)
	if dir == "" {
		return manifest
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("solc-dir %q unreadable: %v", dir, err)
		return manifest
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		release, err := pragma.ParseReleaseId(entry.Name())
		if err != nil {
			continue
		}
		binaryPath := dir + "/" + entry.Name() + "/solc"
		if _, err := os.Stat(binaryPath); err != nil {
			continue
		}
		manifest[release.String()] = binaryPath
	}
	return manifest
}

// loadSettings reads --settings if given, else falls back to config.Defaults().
func loadSettings() (solc.InputSettings, error) {
	if settingsURI == "" {
		return config.Defaults(), nil
	}
	data, err := os.ReadFile(settingsURI)
	if err != nil {
		return solc.InputSettings{}, fmt.Errorf("solgas: read settings file: %w", err)
	}
	return config.Load(data)
}

// buildCompilationService wires a registry.CompilerRegistry, bound to
// --solc-dir's static manifest plus the --solc-bin/$PATH bundled default, and
// a compilation.CompilationService on top of it. Every solgas subcommand
// that touches the compiler shares this construction.
func buildCompilationService() (*compilation.CompilationService, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	source := registry.NewStaticManifestSource(buildStaticManifest(solcDir))
	bundledCompiler := solc.NewProcessCompiler(resolveBundledBinary())
	reg := registry.New(source, defaultBundledRelease, bundledCompiler)

	return compilation.New(reg, nil, settings), nil
}
