package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/solgas/engine/pkg/analysis"
	"github.com/solgas/engine/pkg/console"
	"github.com/spf13/cobra"
)

// NewMCPCommand creates the "mcp" command: an MCP server exposing
// analyze_source and get_stats as tools backed directly by an in-process
// analysis.Engine. Unlike the teacher's mcp-server, which shells out to a
// subprocess per tool call to keep GitHub tokens out of the server process,
// this domain has nothing equivalent to isolate, so tools call the engine
// directly.
func NewMCPCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server exposing Solidity analysis as tools",
		Long: `Run an MCP server that exposes solgas's analysis engine as MCP tools:

  analyze_source  - run (or fetch cached) gas/diagnostic analysis for a source buffer
  get_stats       - report analysis engine cache and pending-compilation counts

By default, the server uses stdio transport. Use --port to run an HTTP
server with streamable-HTTP transport instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run HTTP server on (uses stdio if not specified)")

	return cmd
}

func runMCP(port int) error {
	svc, err := buildCompilationService()
	if err != nil {
		return err
	}
	engine := analysis.New(svc)
	defer engine.Close()

	server := createMCPServer(engine)

	if port > 0 {
		return runMCPHTTPServer(server, port)
	}
	return server.Run(context.Background(), &mcp.StdioTransport{})
}

// analyzeSourceArgs is the analyze_source tool's input.
type analyzeSourceArgs struct {
	URI    string `json:"uri" jsonschema:"Logical identifier for this source buffer, e.g. a file path"`
	Source string `json:"source" jsonschema:"Full Solidity source text"`
	Open   bool   `json:"open,omitempty" jsonschema:"True for the first analysis of this uri (onOpen); false for an edit (onChange)"`
}

// gasEstimateOut is one function's entry in analyzeSourceOutput.GasEstimates.
type gasEstimateOut struct {
	Name     string   `json:"name"`
	Gas      string   `json:"gas"`
	Warnings []string `json:"warnings,omitempty"`
}

// diagnosticOut is one entry in analyzeSourceOutput.Diagnostics.
type diagnosticOut struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// analyzeSourceOutput is the analyze_source tool's structured output.
type analyzeSourceOutput struct {
	URI          string           `json:"uri"`
	Pending      bool             `json:"pending"`
	GasEstimates []gasEstimateOut `json:"gasEstimates"`
	Diagnostics  []diagnosticOut  `json:"diagnostics"`
}

func toAnalyzeSourceOutput(uri string, live analysis.LiveAnalysis) analyzeSourceOutput {
	out := analyzeSourceOutput{
		URI:     uri,
		Pending: live.IsPending,
	}
	for _, gi := range live.GasInfo {
		out.GasEstimates = append(out.GasEstimates, gasEstimateOut{
			Name:     gi.Name,
			Gas:      gi.Gas.String(),
			Warnings: gi.Warnings,
		})
	}
	for _, d := range live.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, diagnosticOut{Severity: d.Severity, Message: d.Message})
	}
	return out
}

// getStatsArgs is the get_stats tool's input: none.
type getStatsArgs struct{}

func createMCPServer(engine *analysis.Engine) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    cliName,
		Version: versionInfo,
	}, nil)

	analyzeSchema, err := GenerateOutputSchema[analyzeSourceOutput]()
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage(fmt.Sprintf("failed to generate output schema for analyze_source: %v", err)))
		analyzeSchema = nil
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:         "analyze_source",
		Description:  "Run (or fetch cached) gas estimation and diagnostics for a Solidity source buffer",
		OutputSchema: analyzeSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args analyzeSourceArgs) (*mcp.CallToolResult, *analyzeSourceOutput, error) {
		var live analysis.LiveAnalysis
		if args.Open {
			live = engine.OnOpen([]byte(args.Source), args.URI)
		} else {
			live = engine.OnChange([]byte(args.Source), args.URI)
		}

		out := toAnalyzeSourceOutput(args.URI, live)
		payload, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error marshaling analysis: %v", err)}},
			}, nil, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, &out, nil
	})

	statsSchema, err := GenerateOutputSchema[analysis.Stats]()
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage(fmt.Sprintf("failed to generate output schema for get_stats: %v", err)))
		statsSchema = nil
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:         "get_stats",
		Description:  "Report analysis engine cache size, cached compiler versions, and pending compilation count",
		OutputSchema: statsSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getStatsArgs) (*mcp.CallToolResult, *analysis.Stats, error) {
		stats := engine.GetStats()
		payload, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error marshaling stats: %v", err)}},
			}, nil, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, &stats, nil
	})

	return server
}

func runMCPHTTPServer(server *mcp.Server, port int) error {
	handler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return server
	}, nil)

	addr := fmt.Sprintf(":%d", port)
	fmt.Fprintln(os.Stderr, console.FormatInfoMessage(fmt.Sprintf("Starting MCP server on http://localhost%s", addr)))
	return http.ListenAndServe(addr, handler)
}
