package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	ExitSuccess       = 0
	ExitGenericError  = 1
	ExitConfigInvalid = 2
	ExitBindFailure   = 3
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	ConfigPath string
	StateDir   string
	Quiet      bool
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:   "grokmcp",
	Short: "MCP server exposing Grok-backed Solana analysis tools",
	Long:  "grokmcp serves four MCP tools (analyze_transaction, analyze_address, analyze_image, ask_grok) backed by the xAI chat completions API.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", ".grokmcp.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&globalFlags.StateDir, "state-dir", "", "state directory for the call journal (default: disabled)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Quiet, "quiet", false, "reduce output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns an error; exit code is set by RunE.
func Execute() error {
	return rootCmd.Execute()
}

// exitWith prints message to stderr and exits with code.
func exitWith(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
