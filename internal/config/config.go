package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded once at startup.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Slack    SlackConfig    `yaml:"slack"`
	Log      LogConfig      `yaml:"log"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry-hours"`
}

// Expiry returns the configured token lifetime.
func (c JWTConfig) Expiry() time.Duration {
	hours := c.ExpiryHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// SlackConfig holds the Slack app credentials and redirect targets.
// It is passed into the linker at construction; nothing reads these values
// from the environment at call time.
type SlackConfig struct {
	ClientID      string `yaml:"client-id"`
	ClientSecret  string `yaml:"client-secret"`
	RedirectURI   string `yaml:"redirect-uri"`
	FrontendURL   string `yaml:"frontend-url"`
	SigningSecret string `yaml:"signing-secret"`
}

// LogConfig holds logging output settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
}

// IngestConfig holds inbound event processing settings.
type IngestConfig struct {
	QueueSize       int `yaml:"queue-size"`
	DedupTTLSeconds int `yaml:"dedup-ttl-seconds"`
}

// QueueSizeOrDefault returns the queue buffer size with a sane floor.
func (c IngestConfig) QueueSizeOrDefault() int {
	if c.QueueSize <= 0 {
		return 256
	}
	return c.QueueSize
}

// DedupTTL returns the event dedup window.
func (c IngestConfig) DedupTTL() time.Duration {
	if c.DedupTTLSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.DedupTTLSeconds) * time.Second
}

// Load reads configuration from a YAML file and applies environment
// overrides for secrets.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if strings.TrimSpace(path) != "" {
		data, errRead := os.ReadFile(path)
		if errRead != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
		if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8317"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:data/slackbridge.db"
	}
	return cfg, nil
}

// applyEnvOverrides lets deployments inject secrets without writing them to
// the config file.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"DATABASE_DSN", &cfg.Database.DSN},
		{"JWT_SECRET", &cfg.JWT.Secret},
		{"SLACK_CLIENT_ID", &cfg.Slack.ClientID},
		{"SLACK_CLIENT_SECRET", &cfg.Slack.ClientSecret},
		{"SLACK_REDIRECT_URI", &cfg.Slack.RedirectURI},
		{"SLACK_SIGNING_SECRET", &cfg.Slack.SigningSecret},
		{"FRONTEND_URL", &cfg.Slack.FrontendURL},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.key); ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				*o.target = trimmed
			}
		}
	}
}

// Validate checks the settings required to complete OAuth handshakes.
func (c SlackConfig) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("config: missing slack client-id")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("config: missing slack client-secret")
	}
	if strings.TrimSpace(c.RedirectURI) == "" {
		return fmt.Errorf("config: missing slack redirect-uri")
	}
	return nil
}
