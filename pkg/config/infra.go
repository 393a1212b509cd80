package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/logx"
	"github.com/Abraxas-365/mandrillx/pkg/outbox"
)

// OutboxConfig configures the delivery queue and its worker.
type OutboxConfig struct {
	Queue           string        `yaml:"queue"`
	Prefix          string        `yaml:"prefix"`
	MaxAttempts     int           `yaml:"max_attempts"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	DequeueTimeout  time.Duration `yaml:"dequeue_timeout"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// EntryTTL is how long sent and failed entries are kept.
	EntryTTL time.Duration `yaml:"entry_ttl"`
}

func loadOutboxConfig() OutboxConfig {
	return OutboxConfig{
		Queue:           getEnv("OUTBOX_QUEUE", ""),
		Prefix:          getEnv("OUTBOX_PREFIX", ""),
		MaxAttempts:     getEnvInt("OUTBOX_MAX_ATTEMPTS", 0),
		PollInterval:    getEnvDuration("OUTBOX_POLL_INTERVAL", 0),
		DequeueTimeout:  getEnvDuration("OUTBOX_DEQUEUE_TIMEOUT", 0),
		RetryDelay:      getEnvDuration("OUTBOX_RETRY_DELAY", 0),
		ShutdownTimeout: getEnvDuration("OUTBOX_SHUTDOWN_TIMEOUT", 0),
		EntryTTL:        getEnvDuration("OUTBOX_ENTRY_TTL", 0),
	}
}

// Options returns the outbox options.
func (o OutboxConfig) Options() []outbox.Option {
	return []outbox.Option{
		outbox.WithQueue(o.Queue),
		outbox.WithMaxAttempts(o.MaxAttempts),
		outbox.WithPollInterval(o.PollInterval),
		outbox.WithDequeueTimeout(o.DequeueTimeout),
		outbox.WithRetryDelay(o.RetryDelay),
		outbox.WithShutdownTimeout(o.ShutdownTimeout),
	}
}

// RedisConfig configures the outbox backend.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnvInt("REDIS_PORT", 0),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

// Address returns host:port.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DatabaseConfig configures the webhook event store.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", ""),
		Port:            getEnvInt("DB_PORT", 0),
		User:            getEnv("DB_USER", ""),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", ""),
		SSLMode:         getEnv("DB_SSLMODE", ""),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 0),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 0),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 0),
	}
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// StorageConfig selects where attachments referenced by path are read from.
type StorageConfig struct {
	Mode      string `yaml:"mode"` // local | s3
	LocalPath string `yaml:"local_path"`
	S3Bucket  string `yaml:"s3_bucket"`
	S3Region  string `yaml:"s3_region"`
	S3Prefix  string `yaml:"s3_prefix"`
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:      getEnv("STORAGE_MODE", ""),
		LocalPath: getEnv("UPLOAD_DIR", ""),
		S3Bucket:  getEnv("AWS_BUCKET", ""),
		S3Region:  getEnv("AWS_REGION", ""),
		S3Prefix:  getEnv("S3_PREFIX", ""),
	}
}

// LogConfig configures the default logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", ""),
		Format: getEnv("LOG_FORMAT", ""),
	}
}

// Logger returns a logx configuration: the LOG_* environment plus the
// level and format chosen here.
func (l LogConfig) Logger() *logx.Config {
	cfg := logx.LoadFromEnv()
	if l.Level != "" {
		cfg.Level = logx.ParseLevel(l.Level)
	}
	if strings.EqualFold(l.Format, "json") {
		cfg.Format = logx.FormatJSON
	}
	return cfg
}
