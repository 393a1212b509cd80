package config

import (
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"gopkg.in/yaml.v3"
)

var configErrors = errx.NewRegistry("CONFIG")

var (
	ErrRead     = configErrors.Register("READ", errx.TypeInternal, 500, "Failed to read config file")
	ErrParse    = configErrors.Register("PARSE", errx.TypeInternal, 500, "Failed to parse config file")
	ErrMerge    = configErrors.Register("MERGE", errx.TypeInternal, 500, "Failed to merge configuration")
	ErrValidate = configErrors.Register("VALIDATE", errx.TypeValidation, 400, "Invalid configuration")
)

// Config is the full application configuration.
type Config struct {
	Mandrill MandrillConfig `yaml:"mandrill"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Outbox   OutboxConfig   `yaml:"outbox"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// Defaults returns the values used for everything neither the file nor the
// environment sets.
func Defaults() Config {
	return Config{
		Mandrill: MandrillConfig{
			APIURL:  "https://mandrillapp.com/api/1.0",
			Timeout: 30 * time.Second,
		},
		Webhook: WebhookConfig{
			Addr:       ":8080",
			Path:       "/webhooks/mandrill",
			SecretName: "secret",
			Table:      "mandrill_webhook_events",
		},
		Outbox: OutboxConfig{
			Queue:           "mandrill",
			Prefix:          "mandrillx:outbox",
			MaxAttempts:     3,
			PollInterval:    time.Second,
			DequeueTimeout:  5 * time.Second,
			RetryDelay:      30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			EntryTTL:        7 * 24 * time.Hour,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "mandrillx",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Storage: StorageConfig{
			Mode:      "local",
			LocalPath: "./attachments",
			S3Region:  "us-east-1",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Notify: NotifyConfig{
			Provider:  "mandrill",
			AWSRegion: "us-east-1",
		},
	}
}

// Load builds the configuration from an optional YAML file, environment
// overrides and Defaults, in that order of precedence: env, file, defaults.
// ${VAR} references in the file are expanded. Boolean environment
// variables can only switch a setting on.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, configErrors.NewWithCause(ErrRead, err).WithDetail("path", path)
		}
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, configErrors.NewWithCause(ErrParse, err).WithDetail("path", filepath.Base(path))
		}
	}

	env := loadFromEnv()
	if err := mergo.Merge(&cfg, env, mergo.WithOverride); err != nil {
		return nil, configErrors.NewWithCause(ErrMerge, err).WithDetail("layer", "env")
	}
	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return nil, configErrors.NewWithCause(ErrMerge, err).WithDetail("layer", "defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFromEnv() Config {
	return Config{
		Mandrill: loadMandrillConfig(),
		Webhook:  loadWebhookConfig(),
		Outbox:   loadOutboxConfig(),
		Redis:    loadRedisConfig(),
		Database: loadDatabaseConfig(),
		Storage:  loadStorageConfig(),
		Log:      loadLogConfig(),
		Notify:   loadNotifyConfig(),
	}
}

// Validate checks values that would only fail later at runtime.
func (c *Config) Validate() error {
	switch c.Storage.Mode {
	case "local", "s3":
	default:
		return configErrors.NewWithMessage(ErrValidate, "storage.mode must be local or s3").
			WithDetail("mode", c.Storage.Mode)
	}
	if c.Storage.Mode == "s3" && c.Storage.S3Bucket == "" {
		return configErrors.NewWithMessage(ErrValidate, "storage.s3_bucket is required in s3 mode")
	}
	switch c.Notify.Provider {
	case "mandrill", "ses", "console":
	default:
		return configErrors.NewWithMessage(ErrValidate, "notify.provider must be mandrill, ses or console").
			WithDetail("provider", c.Notify.Provider)
	}
	if c.Outbox.MaxAttempts < 1 {
		return configErrors.NewWithMessage(ErrValidate, "outbox.max_attempts must be at least 1")
	}
	return nil
}
