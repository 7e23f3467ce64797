// Package cmd - serve command
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"roofquote/api"
	"roofquote/internal/config"
	"roofquote/internal/logging"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pricing and proposal workflow HTTP API",
	Long: `Serve the HTTP API. Workflow sessions live in memory; pricing runs and
lead scores go to the configured store.

Examples:
  roofquote serve
  roofquote serve --addr :9090 --config roofquote.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	s, closeFn, err := api.NewFromConfig(ctx, cfg, Version)
	if err != nil {
		return err
	}
	defer closeFn()

	logging.Info("serving roofquote API",
		zap.String("addr", addr),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("version", Version))
	return s.ListenAndServe(ctx, addr, cfg.Server.ReadTimeout(), cfg.Server.WriteTimeout())
}
