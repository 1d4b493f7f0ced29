package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"grokmcp/internal/config"
	"grokmcp/internal/mcp"
	"grokmcp/internal/store"
	"grokmcp/internal/xai"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio by default, HTTP with --listen)",
	RunE:  runServe,
}

var (
	serveListen  string
	serveMCPPath string
)

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "host:port for Streamable HTTP transport; empty means stdio")
	serveCmd.Flags().StringVar(&serveMCPPath, "mcp-path", "", "HTTP path for the MCP endpoint (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}
	if serveListen != "" {
		cfg.ListenAddr = serveListen
	}
	if serveMCPPath != "" {
		cfg.MCPPath = serveMCPPath
	}
	if globalFlags.StateDir != "" {
		cfg.StateDir = globalFlags.StateDir
	}
	if err := config.Validate(&cfg); err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := xai.NewClient(cfg.XAIBaseURL, cfg.XAIAPIKey)
	srv := mcp.NewServer(cfg, client)

	// the banner and all diagnostics go to stderr; on stdio transport stdout
	// belongs to the protocol.
	out := os.Stderr
	st := newStyles(out)

	if cfg.StateDir != "" {
		callLog, logErr := openCallLog(ctx, cfg.StateDir)
		if logErr != nil {
			fmt.Fprintln(out, st.warnPrefix(), "call journal disabled:", logErr.Error())
		} else {
			defer callLog.Close()
			srv.SetCallLog(callLog)
		}
	}

	if serveListen == "" {
		if !globalFlags.Quiet {
			fmt.Fprintln(out, st.banner(), st.dim("serving MCP on stdio"))
		}
		if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		exitWith(ExitBindFailure, "ERROR: cannot bind "+cfg.ListenAddr+": "+err.Error())
	}
	if !globalFlags.Quiet {
		fmt.Fprintln(out, st.banner(), st.dim("serving MCP over HTTP"))
		fmt.Fprintln(out, st.kv("Endpoint", "http://"+listener.Addr().String()+cfg.MCPPath))
		fmt.Fprintln(out, st.kv("Vision model", cfg.VisionModel))
		fmt.Fprintln(out, st.kv("Text model", cfg.TextModel))
	}
	return srv.Serve(ctx, listener)
}

func openCallLog(ctx context.Context, stateDir string) (*store.CallLog, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, err
	}
	callLog := store.NewCallLog(filepath.Join(stateDir, "calls.db"))
	if err := callLog.Init(ctx); err != nil {
		return nil, err
	}
	return callLog, nil
}
