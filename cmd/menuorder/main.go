package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/vbonduro/menuorder/internal/config"
	"github.com/vbonduro/menuorder/internal/logging"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg, logger)
		},
	}

	rootCmd := &cobra.Command{
		Use:           "menuorder",
		Short:         "Turn a pasted chat menu into an order form and collect orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database")
	serveCmd.Flags().StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "address to listen on")

	rootCmd.AddCommand(serveCmd, newParseCmd(), newSummaryCmd(cfg, logger))

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		cleanup()
		os.Exit(1)
	}
}
