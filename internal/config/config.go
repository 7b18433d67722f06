// Package config loads the httpauth command configuration.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (HTTPAUTH_*)
//  2. Configuration file
//  3. Default values
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/smnsjas/go-httpauth/internal/charset"
	"github.com/smnsjas/go-httpauth/internal/log"
)

// EnvPrefix prefixes every environment variable read by Load.
// Example: HTTPAUTH_LOGGING_LEVEL=debug
const EnvPrefix = "HTTPAUTH"

// Config is the full command configuration.
type Config struct {
	Logging  LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Charset  string        `mapstructure:"charset" yaml:"charset"`
	NTLM     NTLMConfig    `mapstructure:"ntlm" yaml:"ntlm"`
	Priority []string      `mapstructure:"priority" yaml:"priority"`
}

// LoggingConfig controls the command logger and the audit log file.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`

	// File, when set, receives audit events as JSON instead of stderr.
	File string `mapstructure:"file" yaml:"file"`

	// MaxSize is the audit file size in bytes that triggers rotation.
	// Zero disables rotation.
	MaxSize int64 `mapstructure:"max_size" yaml:"max_size"`

	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// NTLMConfig holds the workstation and domain sent in NTLM messages.
type NTLMConfig struct {
	Host   string `mapstructure:"host" yaml:"host"`
	Domain string `mapstructure:"domain" yaml:"domain"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Format:     log.FormatText,
			MaxSize:    10 << 20,
			MaxBackups: 3,
		},
		Charset:  "ISO-8859-1",
		Priority: []string{"ntlm", "digest", "basic"},
	}
}

// Load reads configPath (optional), applies HTTPAUTH_* overrides and
// defaults, and validates the result. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults double as the key list AutomaticEnv consults during Unmarshal.
	def := Default()
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.max_size", def.Logging.MaxSize)
	v.SetDefault("logging.max_backups", def.Logging.MaxBackups)
	v.SetDefault("charset", def.Charset)
	v.SetDefault("ntlm.host", def.NTLM.Host)
	v.SetDefault("ntlm.domain", def.NTLM.Domain)
	v.SetDefault("priority", def.Priority)

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.SetConfigName("httpauth")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "httpauth"))
	}
}

// readConfigFile reports whether a configuration file was read.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// Validate checks values that would otherwise fail later, deep inside a
// command.
func Validate(cfg *Config) error {
	if _, err := log.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case log.FormatText, log.FormatJSON, "":
	default:
		return fmt.Errorf("logging.format: unknown format %q", cfg.Logging.Format)
	}
	if cfg.Logging.MaxBackups < 0 {
		return fmt.Errorf("logging.max_backups: must not be negative, got %d", cfg.Logging.MaxBackups)
	}
	if _, err := charset.Lookup(cfg.Charset); err != nil {
		return fmt.Errorf("charset: %w", err)
	}
	if len(cfg.Priority) == 0 {
		return errors.New("priority: at least one scheme is required")
	}
	for i, name := range cfg.Priority {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("priority[%d]: scheme name is empty", i)
		}
	}
	return nil
}
