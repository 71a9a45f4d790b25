package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "scorn",
	Short: "AI code analysis with a grudge",
	Long:  "Scorn analyzes code with an LLM, scores how cursed it is, and proposes validated fixes. When the model is unreachable it falls back to deterministic rules.",
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(prCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print scorn version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "scorn version %s\n", version)
	},
}
