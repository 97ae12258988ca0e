package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fsnotify/fsnotify"
	"github.com/solgas/engine/pkg/analysis"
	"github.com/solgas/engine/pkg/compilation"
	"github.com/solgas/engine/pkg/console"
	"github.com/spf13/cobra"
)

const spinnerInterval = 100 * time.Millisecond

// NewWatchCommand creates the "watch" command: live recompile on every
// change to a .sol file under a watched directory.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory of .sol files and report gas estimates on every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			return runWatch(args[0], verbose)
		},
	}
	return cmd
}

func runWatch(dir string, verbose bool) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("solgas: watch directory %s: %w", dir, err)
	}

	svc, err := buildCompilationService()
	if err != nil {
		return err
	}
	engine := analysis.New(svc)
	defer engine.Close()

	compileEvents, unsubscribeCompile := svc.Subscribe()
	defer unsubscribeCompile()
	analysisEvents, unsubscribeAnalysis := engine.Subscribe()
	defer unsubscribeAnalysis()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("solgas: create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if addErr := watcher.Add(path); addErr != nil {
				log.Printf("failed to watch %s: %v", path, addErr)
			}
		}
		return nil
	}); err != nil {
		log.Printf("failed to walk %s: %v", dir, err)
	}

	fmt.Fprintln(os.Stderr, console.FormatInfoMessage(fmt.Sprintf("Watching for .sol changes in %s...", dir)))
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop watching.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var spin *spinner.Spinner

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("solgas: watcher channel closed")
			}
			if !strings.HasSuffix(event.Name, ".sol") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			source, err := os.ReadFile(event.Name)
			if err != nil {
				log.Printf("read %s: %v", event.Name, err)
				continue
			}
			engine.OnChange(source, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("solgas: watcher error channel closed")
			}
			fmt.Fprintln(os.Stderr, console.FormatWarningMessage(fmt.Sprintf("watcher error: %v", err)))

		case ev, ok := <-compileEvents:
			if !ok {
				continue
			}
			switch ev.Kind {
			case compilation.EventVersionDownloading:
				spin = spinner.New(spinner.CharSets[14], spinnerInterval)
				spin.Suffix = fmt.Sprintf(" downloading compiler for %s", ev.URI)
				spin.Start()
			case compilation.EventVersionReady:
				if spin != nil {
					spin.Stop()
					spin = nil
				}
			}

		case ev, ok := <-analysisEvents:
			if !ok {
				continue
			}
			if ev.Kind != analysis.EventAnalysisReady {
				continue
			}
			fmt.Fprintln(os.Stderr, console.FormatSuccessMessage(fmt.Sprintf("analysis ready: %s", ev.URI)))
			if len(ev.Analysis.GasInfo) > 0 {
				fmt.Println(console.RenderGasTable(ev.Analysis.GasInfo))
			}
			fmt.Print(console.FormatDiagnosticsSummary(ev.Analysis.Diagnostics, verbose))

		case <-sigChan:
			if spin != nil {
				spin.Stop()
			}
			fmt.Fprintln(os.Stderr, "\nStopping watch mode...")
			return nil
		}
	}
}
