package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"grokmcp/internal/config"
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Show recent upstream tool calls from the call journal",
	RunE:  runCalls,
}

var callsLimit int

func init() {
	callsCmd.Flags().IntVar(&callsLimit, "limit", 20, "maximum number of calls to show")
}

func runCalls(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}
	stateDir := cfg.StateDir
	if globalFlags.StateDir != "" {
		stateDir = globalFlags.StateDir
	}
	if stateDir == "" {
		exitWith(ExitConfigInvalid, "ERROR: no state directory configured; the call journal is disabled")
	}

	callLog, err := openCallLog(cmd.Context(), stateDir)
	if err != nil {
		return fmt.Errorf("open call journal: %w", err)
	}
	defer callLog.Close()

	records, err := callLog.Recent(cmd.Context(), callsLimit)
	if err != nil {
		return fmt.Errorf("read call journal: %w", err)
	}

	st := newStyles(os.Stdout)
	if len(records) == 0 {
		fmt.Println(st.dim("no recorded calls"))
		return nil
	}
	for _, rec := range records {
		ts := time.Unix(rec.TSUnix, 0).Format(time.RFC3339)
		line := fmt.Sprintf("%s  %-20s  %-18s  %5dms", ts, rec.Tool, rec.Model, rec.DurationMS)
		if rec.IsError {
			fmt.Println(st.errLine(line + "  " + rec.Error))
			continue
		}
		fmt.Println(line)
	}
	return nil
}
