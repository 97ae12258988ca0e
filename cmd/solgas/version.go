package main

import (
	"fmt"

	"github.com/solgas/engine/pkg/console"
	"github.com/spf13/cobra"
)

// versionInfo is set by main via SetVersionInfo.
var versionInfo = "dev"

// SetVersionInfo sets the version information printed by the version command.
func SetVersionInfo(v string) {
	versionInfo = v
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(console.FormatInfoMessage(fmt.Sprintf("%s version %s", cliName, versionInfo)))
			fmt.Println(console.FormatInfoMessage("Real-time Solidity gas estimation engine"))
		},
	}
}
