package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/logx"
	"github.com/Abraxas-365/mandrillx/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
mandrill:
  api_key: ${TEST_MANDRILL_KEY}
  timeout: 10s
  fail_silently: true
  defaults:
    track_clicks: false
    tags: [transactional]
    global_merge_vars:
      company: Acme
webhook:
  secret: abc123
  signature_key: signing-key
  url: https://example.com/webhooks/mandrill
outbox:
  max_attempts: 5
storage:
  mode: s3
  s3_bucket: mail-attachments
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mandrillx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_LayersFileEnvAndDefaults(t *testing.T) {
	t.Setenv("TEST_MANDRILL_KEY", "file-key")
	t.Setenv("MANDRILL_TIMEOUT", "5s")
	t.Setenv("OUTBOX_QUEUE", "priority")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Mandrill.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Mandrill.Timeout, "env wins over file")
	assert.True(t, cfg.Mandrill.FailSilently)
	assert.Equal(t, "https://mandrillapp.com/api/1.0", cfg.Mandrill.APIURL, "default fills the gap")

	require.NotNil(t, cfg.Mandrill.Defaults.TrackClicks)
	assert.False(t, *cfg.Mandrill.Defaults.TrackClicks)
	assert.Equal(t, []string{"transactional"}, cfg.Mandrill.Defaults.Tags)
	assert.Equal(t, "Acme", cfg.Mandrill.Defaults.GlobalMergeVars["company"])

	assert.Equal(t, "priority", cfg.Outbox.Queue)
	assert.Equal(t, 5, cfg.Outbox.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Outbox.RetryDelay)

	auth := cfg.Webhook.AuthConfig()
	assert.Equal(t, "abc123", auth.Secret)
	assert.Equal(t, "secret", auth.SecretName)
	assert.Equal(t, "signing-key", auth.SignatureKey)
	assert.Equal(t, "/webhooks/mandrill", cfg.Webhook.Path)

	assert.Equal(t, "mail-attachments", cfg.Storage.S3Bucket)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}

func TestLoad_WithoutFile(t *testing.T) {
	t.Setenv("MANDRILL_API_KEY", "env-key")
	t.Setenv("MANDRILL_IGNORE_RECIPIENT_STATUS", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Mandrill.APIKey)
	assert.True(t, cfg.Mandrill.IgnoreRecipientStatus)
	assert.Equal(t, "local", cfg.Storage.Mode)
	assert.Equal(t, "mandrill", cfg.Notify.Provider)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errx.IsCode(err, ErrRead))

	_, err = Load(writeConfig(t, "mandrill: [unclosed"))
	assert.True(t, errx.IsCode(err, ErrParse))

	_, err = Load(writeConfig(t, "storage:\n  mode: ftp\n"))
	assert.True(t, errx.IsCode(err, ErrValidate))

	_, err = Load(writeConfig(t, "storage:\n  mode: s3\n"))
	assert.True(t, errx.IsCode(err, ErrValidate))
}

func TestClientConfig_FillsDefaults(t *testing.T) {
	m := MandrillConfig{APIKey: "k", FromName: "Acme", Tags: []string{"a"}}
	cc := m.ClientConfig()
	assert.Equal(t, "Acme", ptrx.StringValue(cc.Defaults.FromName))
	assert.Equal(t, []string{"a"}, cc.Defaults.Tags)

	m.Defaults.FromName = ptrx.String("File")
	assert.Equal(t, "File", ptrx.StringValue(m.ClientConfig().Defaults.FromName))
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_INT", "nope")
	t.Setenv("CFG_SLICE", " a, ,b ")
	t.Setenv("CFG_BOOL", "1")

	assert.Equal(t, 7, getEnvInt("CFG_INT", 7))
	assert.Equal(t, []string{"a", "b"}, getEnvStringSlice("CFG_SLICE", nil))
	assert.True(t, getEnvBool("CFG_BOOL", false))
	assert.Equal(t, time.Minute, getEnvDuration("CFG_UNSET_DURATION", time.Minute))
}

func TestLogConfig(t *testing.T) {
	cfg := LogConfig{Level: "debug", Format: "json"}.Logger()
	assert.Equal(t, logx.LevelDebug, cfg.Level)
	assert.Equal(t, logx.FormatJSON, cfg.Format)
}
