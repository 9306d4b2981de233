package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/mls-photo-enhancer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Run the MCP (Model Context Protocol) server. Requests are read from stdin
and responses written to stdout, one JSON-RPC message per line. Logs go to
stderr. Configure it in your MCP client as a stdio server.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := current
	a.logger.Info("MCP server starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
	)

	srv := server.New(a.enhancer, a.meter,
		server.WithLogger(a.logger.Named("server")),
		server.WithDefaultAccount(a.cfg.Metering.Account),
		server.WithWorkers(a.cfg.Batch.Workers),
		server.WithVersion(Version),
	)
	return srv.Run(cmd.Context())
}
