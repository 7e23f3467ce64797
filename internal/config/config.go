// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"roofquote/core/types"
	"roofquote/internal/logging"
)

// Environment variables that override file configuration
const (
	EnvDatabaseURL    = "ROOFQUOTE_DATABASE_URL"
	EnvStorageBackend = "ROOFQUOTE_STORAGE_BACKEND"
	EnvWebhookURL     = "ROOFQUOTE_WEBHOOK_URL"
	EnvWebhookSecret  = "ROOFQUOTE_WEBHOOK_SECRET"
	EnvAddr           = "ROOFQUOTE_ADDR"
	EnvLogLevel       = "ROOFQUOTE_LOG_LEVEL"
	EnvCatalogPath    = "ROOFQUOTE_CATALOG"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing" yaml:"pricing"`

	// Storage selects where pricing runs and lead scores are persisted
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Server contains HTTP API configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Delivery configures the proposal webhook sender
	Delivery DeliveryConfig `json:"delivery" yaml:"delivery"`

	// Proposals configures the proposal renderer
	Proposals ProposalConfig `json:"proposals" yaml:"proposals"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// CatalogPath is an HCL pricing catalog; empty uses the built-in catalog
	CatalogPath string `json:"catalog_path" yaml:"catalog_path"`

	// Currency is the display currency
	Currency types.Currency `json:"currency" yaml:"currency"`

	// Rounding is "cent" or "whole"
	Rounding string `json:"rounding" yaml:"rounding"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	// Backend is one of file, sqlite, mysql, postgres, none
	Backend string `json:"backend" yaml:"backend"`

	// Directory is used by the file backend
	Directory string `json:"directory" yaml:"directory"`

	// DSN is the database connection string for SQL backends
	DSN string `json:"dsn" yaml:"dsn"`

	// MigrateOnStart applies pending migrations when the store opens
	MigrateOnStart bool `json:"migrate_on_start" yaml:"migrate_on_start"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Addr              string `json:"addr" yaml:"addr"`
	ReadTimeoutSecs   int    `json:"read_timeout_secs" yaml:"read_timeout_secs"`
	WriteTimeoutSecs  int    `json:"write_timeout_secs" yaml:"write_timeout_secs"`
	CollaboratorTOSec int    `json:"collaborator_timeout_secs" yaml:"collaborator_timeout_secs"`
}

// DeliveryConfig configures the webhook proposal sender
type DeliveryConfig struct {
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
	Secret       string `json:"secret" yaml:"secret"`
	TimeoutSecs  int    `json:"timeout_secs" yaml:"timeout_secs"`
	RetryCount   int    `json:"retry_count" yaml:"retry_count"`
	RetryDelayMs int    `json:"retry_delay_ms" yaml:"retry_delay_ms"`
}

// ProposalConfig configures rendered proposals
type ProposalConfig struct {
	CompanyName string `json:"company_name" yaml:"company_name"`

	// OutputDir receives a PDF per generated proposal; empty keeps them in memory
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// SkipPDF renders the HTML preview only
	SkipPDF bool `json:"skip_pdf" yaml:"skip_pdf"`
}

// ReadTimeout returns the server read timeout
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSecs) * time.Second
}

// WriteTimeout returns the server write timeout
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSecs) * time.Second
}

// CollaboratorTimeout bounds each render/send call made by a workflow transition
func (s ServerConfig) CollaboratorTimeout() time.Duration {
	return time.Duration(s.CollaboratorTOSec) * time.Second
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".roofquote")

	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			Currency: types.CurrencyUSD,
			Rounding: "cent",
		},
		Storage: StorageConfig{
			Backend:        "file",
			Directory:      filepath.Join(dataDir, "runs"),
			MigrateOnStart: true,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadTimeoutSecs:   15,
			WriteTimeoutSecs:  30,
			CollaboratorTOSec: 20,
		},
		Delivery: DeliveryConfig{
			TimeoutSecs:  30,
			RetryCount:   3,
			RetryDelayMs: 1000,
		},
		Proposals: ProposalConfig{
			CompanyName: "Roofing Proposal",
			OutputDir:   filepath.Join(dataDir, "proposals"),
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a JSON or YAML file, then applies the
// environment (including a .env file in the working directory).
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if isYAML(path) {
			err = yaml.Unmarshal(data, config)
		} else {
			err = json.Unmarshal(data, config)
		}
		if err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	config.ApplyEnv()
	return config, nil
}

// ApplyEnv overlays environment variables. A .env file is read first but never
// overrides variables already present in the process environment.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(EnvStorageBackend); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(EnvWebhookURL); v != "" {
		c.Delivery.Endpoint = v
	}
	if v := os.Getenv(EnvWebhookSecret); v != "" {
		c.Delivery.Secret = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvCatalogPath); v != "" {
		c.Pricing.CatalogPath = v
	}
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
