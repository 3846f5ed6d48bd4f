package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// APIConfig holds the HTTP server settings.
type APIConfig struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// ClickHouseConfig holds the connection settings for the session store.
type ClickHouseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Table        string `yaml:"table"`
	QueryTimeout string `yaml:"query_timeout"`
}

// Timeout parses the configured query timeout, defaulting to 10s.
func (c ClickHouseConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.QueryTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// AuthConfig holds the bearer credential settings.
type AuthConfig struct {
	Secret        string `yaml:"secret"`
	TokenLifetime string `yaml:"token_lifetime"`
}

// Lifetime parses the configured token lifetime, defaulting to 30m.
func (c AuthConfig) Lifetime() time.Duration {
	d, err := time.ParseDuration(c.TokenLifetime)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// UsersConfig holds the user store settings.
type UsersConfig struct {
	DBPath string `yaml:"db_path"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	API        APIConfig        `yaml:"api"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Auth       AuthConfig       `yaml:"auth"`
	Users      UsersConfig      `yaml:"users"`
}

// LoadConfig reads the configuration from a YAML file, applies
// environment variable overrides, and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyEnv()
	return &cfg, nil
}

// applyEnv overrides file-configured values with environment
// variables, matching the variable names the deployment uses.
func (c *Config) applyEnv() {
	setString(&c.API.ListenAddr, "LISTEN_ADDR")
	setString(&c.ClickHouse.Host, "CLICKHOUSE_HOST")
	setInt(&c.ClickHouse.Port, "CLICKHOUSE_PORT")
	setString(&c.ClickHouse.Username, "CLICKHOUSE_USER")
	setString(&c.ClickHouse.Password, "CLICKHOUSE_PASSWORD")
	setString(&c.ClickHouse.Database, "CLICKHOUSE_DATABASE")
	setString(&c.ClickHouse.Table, "CLICKHOUSE_TABLE")
	setString(&c.Auth.Secret, "SECRET_KEY")
	setString(&c.Users.DBPath, "USERS_DB_PATH")

	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		if mins, err := strconv.Atoi(v); err == nil && mins > 0 {
			c.Auth.TokenLifetime = fmt.Sprintf("%dm", mins)
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
