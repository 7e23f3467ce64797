// Package cmd provides the CLI commands for roofquote.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"roofquote/adapters/catalog"
	"roofquote/adapters/storage"
	"roofquote/core/output"
	"roofquote/internal/config"
	"roofquote/internal/logging"
)

// Version is stamped at build time with -ldflags
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "roofquote",
	Short: "Price roofing jobs, quote financing and score leads",
	Long: `roofquote turns roof measurements into good/better/best proposals with
financing options, scores incoming leads, and runs the proposal workflow
behind an HTTP API.

Examples:
  roofquote quote --area 2500 --pitch 6/12 --complexity moderate
  roofquote finance 18500 --terms 60,120
  roofquote score --budget 10000_plus --urgency immediate --email --phone
  roofquote leads score-batch leads.csv --save
  roofquote serve --addr :8080`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, JSON or YAML (default is $HOME/.roofquote/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".roofquote", "config.yaml")
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

func loadCatalog() (*catalog.Catalog, error) {
	return catalog.FromConfig(config.Get().Pricing)
}

// openStore opens the configured store; a nil store means persistence is off
func openStore(ctx context.Context) (storage.Store, error) {
	return storage.Open(ctx, config.Get().Storage)
}

func printReport(format string, details bool, report *output.Report) error {
	f, err := output.NewRegistry(details).Get(format)
	if err != nil {
		return err
	}
	return f.Render(os.Stdout, report)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("roofquote version %s\n", Version)
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *config.Get()
		if cfg.Delivery.Secret != "" {
			cfg.Delivery.Secret = "********"
		}
		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a default configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); err == nil {
			return fmt.Errorf("%s already exists", args[0])
		}
		if err := config.Default().Save(args[0]); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Wrote default configuration to %s\n", args[0])
		return nil
	},
}
