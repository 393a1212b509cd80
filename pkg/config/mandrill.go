package config

import (
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/hookx"
	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"github.com/Abraxas-365/mandrillx/pkg/ptrx"
)

// MandrillConfig configures the API client. Defaults is only read from the
// config file.
type MandrillConfig struct {
	APIKey                string            `yaml:"api_key"`
	APIURL                string            `yaml:"api_url"`
	Timeout               time.Duration     `yaml:"timeout"`
	FailSilently          bool              `yaml:"fail_silently"`
	IgnoreRecipientStatus bool              `yaml:"ignore_recipient_status"`
	FromAddress           string            `yaml:"from_address"`
	FromName              string            `yaml:"from_name"`
	Tags                  []string          `yaml:"tags"`
	Defaults              mandrillx.Options `yaml:"defaults"`
}

func loadMandrillConfig() MandrillConfig {
	return MandrillConfig{
		APIKey:                getEnv("MANDRILL_API_KEY", ""),
		APIURL:                getEnv("MANDRILL_API_URL", ""),
		Timeout:               getEnvDuration("MANDRILL_TIMEOUT", 0),
		FailSilently:          getEnvBool("MANDRILL_FAIL_SILENTLY", false),
		IgnoreRecipientStatus: getEnvBool("MANDRILL_IGNORE_RECIPIENT_STATUS", false),
		FromAddress:           getEnv("MANDRILL_FROM_ADDRESS", getEnv("EMAIL_FROM_ADDRESS", "")),
		FromName:              getEnv("MANDRILL_FROM_NAME", getEnv("EMAIL_FROM_NAME", "")),
		Tags:                  getEnvStringSlice("MANDRILL_TAGS", nil),
	}
}

// ClientConfig returns the mandrillx client configuration. FromName and
// Tags fill the matching defaults when the file left them unset.
func (m MandrillConfig) ClientConfig() mandrillx.Config {
	defaults := m.Defaults
	if defaults.FromName == nil && m.FromName != "" {
		defaults.FromName = ptrx.String(m.FromName)
	}
	if defaults.Tags == nil && len(m.Tags) > 0 {
		defaults.Tags = m.Tags
	}
	return mandrillx.Config{
		APIKey:                m.APIKey,
		APIURL:                m.APIURL,
		Timeout:               m.Timeout,
		FailSilently:          m.FailSilently,
		IgnoreRecipientStatus: m.IgnoreRecipientStatus,
		Defaults:              defaults,
	}
}

// WebhookConfig configures the inbound webhook endpoint.
type WebhookConfig struct {
	Addr         string `yaml:"addr"`
	Path         string `yaml:"path"`
	Secret       string `yaml:"secret"`
	SecretName   string `yaml:"secret_name"`
	SignatureKey string `yaml:"signature_key"`
	URL          string `yaml:"url"`
	// Persist stores received events in Table.
	Persist bool   `yaml:"persist"`
	Table   string `yaml:"table"`
}

func loadWebhookConfig() WebhookConfig {
	return WebhookConfig{
		Addr:         getEnv("WEBHOOK_ADDR", ""),
		Path:         getEnv("WEBHOOK_PATH", ""),
		Secret:       getEnv("MANDRILL_WEBHOOK_SECRET", ""),
		SecretName:   getEnv("MANDRILL_WEBHOOK_SECRET_NAME", ""),
		SignatureKey: getEnv("MANDRILL_WEBHOOK_KEY", ""),
		URL:          getEnv("MANDRILL_WEBHOOK_URL", ""),
		Table:        getEnv("WEBHOOK_TABLE", ""),
		Persist:      getEnvBool("WEBHOOK_PERSIST", false),
	}
}

// AuthConfig returns the webhook authenticator configuration.
func (w WebhookConfig) AuthConfig() hookx.AuthConfig {
	return hookx.AuthConfig{
		Secret:       w.Secret,
		SecretName:   w.SecretName,
		SignatureKey: w.SignatureKey,
		WebhookURL:   w.URL,
	}
}
