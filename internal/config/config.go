package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a data directory.
const FileName = "fintrack.yaml"

// Store drivers.
const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
)

// Config represents the top-level fintrack.yaml configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Ledger LedgerConfig `yaml:"ledger"`
	DPS    DPSConfig    `yaml:"dps"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
	Git    GitConfig    `yaml:"git"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "csv" or "sqlite"
	Path   string `yaml:"path"`   // relative to the data dir; sqlite file name
}

// LedgerConfig controls aggregation defaults.
type LedgerConfig struct {
	DefaultCurrency  string `yaml:"default_currency"`
	SavingsCategory  string `yaml:"savings_category"`
	DonationCategory string `yaml:"donation_category"`
}

// DPSConfig controls the recurring savings workflows.
type DPSConfig struct {
	Category             string `yaml:"category"`
	CashWalletName       string `yaml:"cash_wallet_name"`
	ContributionSchedule string `yaml:"contribution_schedule,omitempty"` // cron spec; empty disables
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig controls the JSON API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// GitConfig controls git integration of the data directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a fintrack.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default(currency string) *Config {
	if currency == "" {
		currency = "USD"
	}
	return &Config{
		Store: StoreConfig{
			Driver: DriverCSV,
			Path:   "fintrack.db",
		},
		Ledger: LedgerConfig{
			DefaultCurrency:  currency,
			SavingsCategory:  "Savings",
			DonationCategory: "Donation",
		},
		DPS: DPSConfig{
			Category:       "DPS",
			CashWalletName: "Cash Wallet",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "fintrack",
			AuthorEmail: "fintrack@localhost",
		},
	}
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with FINTRACK_* environment variables.
func ApplyEnv(cfg *Config) {
	cfg.Store.Driver = getEnv("FINTRACK_STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.Path = getEnv("FINTRACK_STORE_PATH", cfg.Store.Path)
	cfg.Ledger.DefaultCurrency = getEnv("FINTRACK_DEFAULT_CURRENCY", cfg.Ledger.DefaultCurrency)
	cfg.DPS.ContributionSchedule = getEnv("FINTRACK_DPS_SCHEDULE", cfg.DPS.ContributionSchedule)
	cfg.Log.Level = getEnv("FINTRACK_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Pretty = getEnvAsBool("FINTRACK_LOG_PRETTY", cfg.Log.Pretty)
	cfg.Server.Addr = getEnv("FINTRACK_SERVER_ADDR", cfg.Server.Addr)
	cfg.Git.AutoCommit = getEnvAsBool("FINTRACK_GIT_AUTO_COMMIT", cfg.Git.AutoCommit)
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	var problems []string
	switch c.Store.Driver {
	case DriverCSV:
	case DriverSQLite:
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Ledger.DefaultCurrency == "" {
		problems = append(problems, "ledger.default_currency is required")
	}
	if c.DPS.Category == "" {
		problems = append(problems, "dps.category is required")
	}
	if c.DPS.CashWalletName == "" {
		problems = append(problems, "dps.cash_wallet_name is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
