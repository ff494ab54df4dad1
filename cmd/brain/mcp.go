package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandevgo/motherbrain/internal/transport/mcp"
	"github.com/sandevgo/motherbrain/pkg/log"
	"github.com/sandevgo/motherbrain/pkg/srv"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve memory tools over MCP stdio",
	Long:  `Runs the memory engine as an MCP server on stdin/stdout. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		logger := log.FromCtx(ctx)
		e := newEngine(ctx)
		server := mcp.NewServer(e.brain, os.Stdin, os.Stdout)

		// the host closing stdin ends the session like a signal does
		srv.StartServices(ctx, e.services)
		err := server.Start(ctx)
		stop()
		srv.ShutdownServices(ctx, e.services)

		logger.Info().Msg("mcp server stopped")
		return err
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
