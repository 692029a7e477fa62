// Package config provides typed configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Core      CoreConfig      `mapstructure:"core"`
	Transpile TranspileConfig `mapstructure:"transpile"`
	Toolchain ToolchainConfig `mapstructure:"toolchain"`
	Run       RunConfig       `mapstructure:"run"`
	History   HistoryConfig   `mapstructure:"history"`
	Database  DatabaseConfig  `mapstructure:"database"`
	GCS       GCSConfig       `mapstructure:"gcs"`
	GCP       GCPConfig       `mapstructure:"gcp"`
}

// CoreConfig holds core application settings.
type CoreConfig struct {
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// TranspileConfig selects the target language and how strictly scripts are read.
type TranspileConfig struct {
	Target string `mapstructure:"target"`
	Mode   string `mapstructure:"mode"`
	Indent string `mapstructure:"indent"`
}

// ToolchainConfig locates the compilers and where they write.
type ToolchainConfig struct {
	Rustc         string `mapstructure:"rustc"`
	Go            string `mapstructure:"go"`
	WorkDir       string `mapstructure:"work_dir"`
	KeepArtifacts bool   `mapstructure:"keep_artifacts"`
}

// RunConfig holds execution settings.
type RunConfig struct {
	Sandbox bool `mapstructure:"sandbox"`
}

// HistoryConfig controls build history recording.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// GCSConfig holds Google Cloud Storage settings for artifact publishing.
type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsPath string `mapstructure:"credentials_path"`
	Prefix          string `mapstructure:"prefix"`
}

// GCPConfig holds Cloud Monitoring settings for build metrics.
type GCPConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsPath string `mapstructure:"credentials_path"`
	MetricPrefix    string `mapstructure:"metric_prefix"`
}

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"target":  "transpile.target",
	"mode":    "transpile.mode",
	"sandbox": "run.sandbox",
}

// Load loads configuration from defaults, .env, the config file and the
// environment. A non-empty cfgFile replaces the default search path and must
// exist. Flags that were set explicitly take precedence over everything else.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// .env is optional
	_ = loadEnvFile()

	v.SetEnvPrefix("FORGE")
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := loadConfigFile(v, cfgFile); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(cfg.Core.DataDir, "forge.db")
	}
	if cfg.Toolchain.WorkDir == "" {
		cfg.Toolchain.WorkDir = os.TempDir()
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Core defaults
	v.SetDefault("core.data_dir", getDefaultDataDir())
	v.SetDefault("core.log_level", "warn")
	v.SetDefault("core.log_json", false)

	// Transpile defaults
	v.SetDefault("transpile.target", "rust")
	v.SetDefault("transpile.mode", "strict")
	v.SetDefault("transpile.indent", "    ")

	// Toolchain defaults
	v.SetDefault("toolchain.rustc", "rustc")
	v.SetDefault("toolchain.go", "go")
	v.SetDefault("toolchain.work_dir", "")
	v.SetDefault("toolchain.keep_artifacts", false)

	v.SetDefault("run.sandbox", false)
	v.SetDefault("history.enabled", true)

	v.SetDefault("database.path", "")

	// GCS defaults
	v.SetDefault("gcs.bucket", "")
	v.SetDefault("gcs.credentials_path", "")
	v.SetDefault("gcs.prefix", "artifacts/")

	// GCP defaults
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.credentials_path", "")
	v.SetDefault("gcp.metric_prefix", "custom.googleapis.com/forge")
}

// bindEnvVars binds environment variables to config keys.
func bindEnvVars(v *viper.Viper) {
	// Core
	_ = v.BindEnv("core.data_dir", "FORGE_DATA_DIR")
	_ = v.BindEnv("core.log_level", "FORGE_LOG_LEVEL")
	_ = v.BindEnv("core.log_json", "FORGE_LOG_JSON")

	// Transpile
	_ = v.BindEnv("transpile.target", "FORGE_TARGET")
	_ = v.BindEnv("transpile.mode", "FORGE_MODE")
	_ = v.BindEnv("transpile.indent", "FORGE_INDENT")

	// Toolchain
	_ = v.BindEnv("toolchain.rustc", "FORGE_RUSTC")
	_ = v.BindEnv("toolchain.go", "FORGE_GO")
	_ = v.BindEnv("toolchain.work_dir", "FORGE_WORK_DIR")
	_ = v.BindEnv("toolchain.keep_artifacts", "FORGE_KEEP_ARTIFACTS")

	_ = v.BindEnv("run.sandbox", "FORGE_SANDBOX")
	_ = v.BindEnv("history.enabled", "FORGE_HISTORY")

	// Database
	_ = v.BindEnv("database.path", "FORGE_DB_PATH")

	// GCS
	_ = v.BindEnv("gcs.bucket", "FORGE_GCS_BUCKET")
	_ = v.BindEnv("gcs.credentials_path", "FORGE_GCS_CREDENTIALS_PATH")
	_ = v.BindEnv("gcs.prefix", "FORGE_GCS_PREFIX")

	// GCP
	_ = v.BindEnv("gcp.project_id", "FORGE_GCP_PROJECT_ID")
	_ = v.BindEnv("gcp.credentials_path", "FORGE_GCP_CREDENTIALS_PATH")
	_ = v.BindEnv("gcp.metric_prefix", "FORGE_GCP_METRIC_PREFIX")
}

// bindFlags lets explicitly set flags override their config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// loadEnvFile exports the variables of a local .env file that are not
// already set, so the FORGE_* bindings pick them up.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	env := viper.New()
	env.SetConfigFile(".env")
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read .env: %w", err)
	}
	for key, val := range env.AllSettings() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); !set {
			_ = os.Setenv(name, fmt.Sprintf("%v", val))
		}
	}
	return nil
}

// loadConfigFile merges config.yaml from ~/.forge or the working directory,
// or the explicit file when one is given.
func loadConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".forge"))
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// getDefaultDataDir returns the default data directory.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".forge/data"
	}
	return filepath.Join(home, ".forge", "data")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Transpile.Target {
	case "rust", "go":
	default:
		return fmt.Errorf("transpile.target must be rust or go, got %q", c.Transpile.Target)
	}

	switch c.Transpile.Mode {
	case "strict", "permissive":
	default:
		return fmt.Errorf("transpile.mode must be strict or permissive, got %q", c.Transpile.Mode)
	}

	if c.Transpile.Indent == "" {
		return fmt.Errorf("transpile.indent must not be empty")
	}

	switch c.Core.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("core.log_level must be debug, info, warn or error, got %q", c.Core.LogLevel)
	}

	return nil
}

// IsGCSEnabled returns true if artifact publishing is configured.
func (c *Config) IsGCSEnabled() bool {
	return c.GCS.Bucket != ""
}

// IsMetricsEnabled returns true if build metrics export is configured.
func (c *Config) IsMetricsEnabled() bool {
	return c.GCP.ProjectID != ""
}

// ToolchainBinary returns the compiler command for a target.
func (c *Config) ToolchainBinary(target string) string {
	if target == "go" {
		return c.Toolchain.Go
	}
	return c.Toolchain.Rustc
}
