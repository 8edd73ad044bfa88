package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Path is the SQLite database file path.
	Path string `mapstructure:"path" yaml:"path"`
}

// AuthConfig holds session-token settings.
type AuthConfig struct {
	// JWTSecret signs session tokens. Must be overridden outside of
	// local development (TASKBOARD_AUTH_JWT_SECRET).
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`

	// TokenTTLHours is the session token lifetime.
	TokenTTLHours int `mapstructure:"token_ttl_hours" yaml:"token_ttl_hours"`
}

// ListConfig holds list-endpoint pagination bounds.
type ListConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size" yaml:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size" yaml:"max_page_size"`
}

// ReminderConfig holds reminder-scheduler settings.
type ReminderConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	List     ListConfig     `mapstructure:"list" yaml:"list"`
	Reminder ReminderConfig `mapstructure:"reminder" yaml:"reminder"`
}

// TokenTTL returns the configured session token lifetime.
func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskboard", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Addr: ":8080"},
		Store:    StoreConfig{Path: "taskboard.db"},
		Auth:     AuthConfig{JWTSecret: "dev-secret", TokenTTLHours: 24},
		List:     ListConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Reminder: ReminderConfig{PollIntervalSec: 60},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper, layering TASKBOARD_* environment variables on top. If the file
// does not exist, it returns the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("taskboard")
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("store.path", "taskboard.db")
	v.SetDefault("auth.jwt_secret", "dev-secret")
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("list.default_page_size", 20)
	v.SetDefault("list.max_page_size", 100)
	v.SetDefault("reminder.poll_interval_sec", 60)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
