// Package main - Entry point for the roofquote API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"roofquote/api"
	"roofquote/internal/config"
	"roofquote/internal/logging"
)

const version = "0.1.0"

func main() {
	cfgPath := flag.String("config", "", "Path to a JSON or YAML config file")
	addr := flag.String("addr", "", "Server address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	defer logging.Sync()

	listen := cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, closeFn, err := api.NewFromConfig(ctx, cfg, version)
	if err != nil {
		logging.Error("failed to start", zap.Error(err))
		os.Exit(1)
	}
	defer closeFn()

	logging.Info("roofquote API listening", zap.String("addr", listen), zap.String("version", version))
	if err := s.ListenAndServe(ctx, listen, cfg.Server.ReadTimeout(), cfg.Server.WriteTimeout()); err != nil {
		logging.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
