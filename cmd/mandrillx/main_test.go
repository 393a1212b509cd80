package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/config"
	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"github.com/Abraxas-365/mandrillx/pkg/notifx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookApp(t *testing.T) {
	conf := config.Defaults()
	conf.Webhook.Secret = "abc123"
	c := NewContainer(&conf)

	handler, err := c.Webhook(t.Context())
	require.NoError(t, err)

	app := newApp()
	handler.RegisterRoutes(app, conf.Webhook.Path)
	app.Use(notFoundHandler)

	form := url.Values{"mandrill_events": {`[{"event":"send","_id":"m1","msg":{"email":"a@example.com"}}]`}}
	req := httptest.NewRequest("POST", conf.Webhook.Path+"?secret=abc123", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("HEAD", conf.Webhook.Path+"?secret=wrong", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestLoadMessage(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/msg.yaml"
	require.NoError(t, writeFile(path, `
to: ["Ana <ana@example.com>"]
subject: Welcome
body: hi
options:
  tags: [welcome]
  send_at: 2030-01-02
`))

	msg, err := loadMessage(t.Context(), path, nil)
	require.NoError(t, err)
	applyFrom(msg, "noreply@example.com")

	assert.Equal(t, "noreply@example.com", msg.From)
	assert.Equal(t, []string{"welcome"}, msg.Options.Tags)
	require.NotNil(t, msg.Options.SendAt)
	assert.Equal(t, "2030-01-02 00:00:00", msg.Options.SendAt.String())
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestNotifierConsole(t *testing.T) {
	conf := config.Defaults()
	conf.Notify.Provider = "console"
	c := NewContainer(&conf)

	client, err := c.Notifier(t.Context())
	require.NoError(t, err)

	results, err := client.SendBulkEmail(t.Context(), []notifx.EmailMessage{
		{To: []string{"a@example.com"}, Subject: "hi", TextBody: "x"},
	})
	require.NoError(t, err)
	assert.True(t, results[0].Success)
	assert.Equal(t, 0, failed(results))
}

func TestFetchAccountWaitsForEveryCall(t *testing.T) {
	var finished atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/info.json":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"status":"error","name":"GeneralError","message":"boom"}`))
			return
		case "/users/senders.json":
			time.Sleep(50 * time.Millisecond)
			w.Write([]byte(`[{"address":"a@example.com"}]`))
		case "/tags/list.json":
			time.Sleep(50 * time.Millisecond)
			w.Write([]byte(`[{"tag":"welcome"}]`))
		}
		finished.Add(1)
	}))
	defer srv.Close()

	client, err := mandrillx.NewClient(mandrillx.Config{APIKey: "key", APIURL: srv.URL})
	require.NoError(t, err)

	account, err := fetchAccount(t.Context(), client)
	assert.Nil(t, account)
	assert.True(t, errx.IsCode(err, mandrillx.ErrTransport))
	assert.Equal(t, int32(2), finished.Load())
}
