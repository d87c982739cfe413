package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingConfig marks a mandatory configuration value that was not
// provided. Wrapped errors carry the value's name; mains treat it as fatal
// before any work starts.
var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Manifest  ManifestConfig  `mapstructure:"manifest"`
	Migration MigrationConfig `mapstructure:"migration"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Captions  CaptionsConfig  `mapstructure:"captions"`
	Log       LogConfig       `mapstructure:"log"`
}

// APIConfig describes the destination platform endpoint and credentials.
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Token     string `mapstructure:"token"`
	AccountID string `mapstructure:"account_id"`
}

// ManifestConfig locates the exported manifest and maps its column names.
// Exact header names are a per-export concern, so they are configuration.
type ManifestConfig struct {
	Path           string `mapstructure:"path"`
	IDColumn       string `mapstructure:"id_column"`
	NameColumn     string `mapstructure:"name_column"`
	URLColumn      string `mapstructure:"url_column"`
	GroupColumn    string `mapstructure:"group_column"`
	DownloadColumn string `mapstructure:"download_column"`
}

type MigrationConfig struct {
	DelayMs     int    `mapstructure:"delay_ms"`
	GroupFilter string `mapstructure:"group_filter"`
	DryRun      bool   `mapstructure:"dry_run"`
}

type LedgerConfig struct {
	Path string `mapstructure:"path"`
	Lock bool   `mapstructure:"lock"`
}

type CaptionsConfig struct {
	Dir      string `mapstructure:"dir"`
	Language string `mapstructure:"language"`
	LogPath  string `mapstructure:"log_path"`
	DryRun   bool   `mapstructure:"dry_run"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	File     string `mapstructure:"file"`
	FileOnly bool   `mapstructure:"file_only"`
}

// Load reads configuration from an optional .env file, a YAML config file,
// and environment variables, in ascending priority.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("api.base_url", "")
	v.SetDefault("manifest.path", "./manifest.csv")
	v.SetDefault("manifest.id_column", "id")
	v.SetDefault("manifest.name_column", "video")
	v.SetDefault("manifest.url_column", "original_url")
	v.SetDefault("manifest.group_column", "project_id")
	v.SetDefault("manifest.download_column", "download_url")
	v.SetDefault("migration.delay_ms", 500)
	v.SetDefault("migration.group_filter", "")
	v.SetDefault("migration.dry_run", false)
	v.SetDefault("ledger.path", "./data/ledger.json")
	v.SetDefault("ledger.lock", true)
	v.SetDefault("captions.dir", "./captions")
	v.SetDefault("captions.language", "en")
	v.SetDefault("captions.log_path", "./data/caption-uploads.log")
	v.SetDefault("captions.dry_run", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("api.base_url", "VIDSHIFT_API_BASE_URL")
	v.BindEnv("api.token", "VIDSHIFT_API_TOKEN")
	v.BindEnv("api.account_id", "VIDSHIFT_ACCOUNT_ID")
	v.BindEnv("ledger.path", "VIDSHIFT_LEDGER_PATH")
	v.BindEnv("manifest.path", "VIDSHIFT_MANIFEST_PATH")
	v.BindEnv("captions.dir", "VIDSHIFT_CAPTIONS_DIR")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ValidateMigration checks the values the migration run cannot start without.
func (c *Config) ValidateMigration() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if c.Manifest.Path == "" {
		return fmt.Errorf("%w: manifest.path", ErrMissingConfig)
	}
	return nil
}

// ValidateCaptions checks the values the caption run cannot start without.
func (c *Config) ValidateCaptions() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if c.Captions.Dir == "" {
		return fmt.Errorf("%w: captions.dir", ErrMissingConfig)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url", ErrMissingConfig)
	}
	if c.API.Token == "" {
		return fmt.Errorf("%w: api.token", ErrMissingConfig)
	}
	if c.API.AccountID == "" {
		return fmt.Errorf("%w: api.account_id", ErrMissingConfig)
	}
	return nil
}
