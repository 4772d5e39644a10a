// Package config handles the loading and management of application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joelfokou/cozewf/internal/apperror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultEndpoint   = "https://api.coze.cn/v1/workflows/run"
	DefaultWorkflowID = "video-script-generator-001"
	DefaultParamKey   = "topic"
	DefaultLogLevel   = "warn"
)

// DotEnvFile is loaded into the process environment before configuration is read.
var DotEnvFile = ".env"

type Paths struct {
	Database string `mapstructure:"database"`
	LogsFile string `mapstructure:"logs_file"`
}

type History struct {
	Enabled bool `mapstructure:"enabled"`
}

type Config struct {
	APIToken   string        `mapstructure:"api_token"`
	WorkflowID string        `mapstructure:"workflow_id"`
	Endpoint   string        `mapstructure:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout"` // 0 = no timeout
	ParamKey   string        `mapstructure:"param_key"`
	LogLevel   string        `mapstructure:"log_level"`
	Paths      Paths         `mapstructure:"paths"`
	History    History       `mapstructure:"history"`
}

// Validate checks the values the invoker cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return apperror.Config(apperror.ErrMissingToken)
	}
	if strings.TrimSpace(c.WorkflowID) == "" {
		return apperror.Config(apperror.ErrMissingWorkflowID)
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return apperror.Config(errors.New("endpoint cannot be empty"))
	}
	if c.Timeout < 0 {
		return apperror.Config(fmt.Errorf("timeout cannot be negative: %s", c.Timeout))
	}
	return nil
}

// getDefaultConfigDir returns the default configuration directory for the application.
func getDefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user config dir: %w", err)
	}
	return filepath.Join(dir, "cozewf"), nil
}

// getDefaultDataDir returns the default data directory for the application.
func getDefaultDataDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user cache dir: %w", err)
	}
	return filepath.Join(dir, "cozewf"), nil
}

// defaultDatabasePath is empty when no cache dir is available. The history
// store refuses an empty path, so only commands that need it fail.
func defaultDatabasePath() string {
	dir, err := getDefaultDataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "history.db")
}

// DefaultConfig returns the default configuration file content as a string.
// The API token is never written here; it comes from the environment or a .env file.
func DefaultConfig() string {
	return fmt.Sprintf(`# cozewf configuration file
# Values can be overridden by COZE_* environment variables or command-line flags.
# COZE_API_TOKEN must be provided through the environment.

workflow_id: %s
endpoint: %s
timeout: 0s
param_key: %s
log_level: %s

paths:
  database: %q
  logs_file: ""

history:
  enabled: false
`, DefaultWorkflowID, DefaultEndpoint, DefaultParamKey, DefaultLogLevel, defaultDatabasePath())
}

// ConfigFile returns the default config file location.
func ConfigFile() (string, error) {
	dir, err := getDefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from the .env file, the config file and environment
// variables. An empty configFilePath means the default location.
func Load(configFilePath string) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("api_token", "")
	v.SetDefault("workflow_id", DefaultWorkflowID)
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("timeout", "0s")
	v.SetDefault("param_key", DefaultParamKey)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("paths.database", defaultDatabasePath())
	v.SetDefault("paths.logs_file", "")
	v.SetDefault("history.enabled", false)

	// Environment variables: COZE_API_TOKEN, COZE_WORKFLOW_ID, COZE_PATHS_DATABASE, ...
	v.SetEnvPrefix("COZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if dir, err := getDefaultConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configFilePath != "" {
		v.SetConfigFile(configFilePath)
		// A missing file is allowed so `init --config` can create it.
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFilePath, err)
		}
	} else {
		// Ignore error if config file doesn't exist
		_ = v.ReadInConfig()
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	// An empty COZE_WORKFLOW_ID behaves like an unset one.
	if strings.TrimSpace(c.WorkflowID) == "" {
		c.WorkflowID = DefaultWorkflowID
	}
	if strings.TrimSpace(c.ParamKey) == "" {
		c.ParamKey = DefaultParamKey
	}

	return &c, nil
}
