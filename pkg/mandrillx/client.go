package mandrillx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/logx"
)

// DefaultAPIURL is the public Mandrill API base.
const DefaultAPIURL = "https://mandrillapp.com/api/1.0"

const userAgent = "mandrillx/1.0"

// Config configures a Client.
type Config struct {
	APIKey string
	// APIURL defaults to DefaultAPIURL.
	APIURL  string
	Timeout time.Duration
	// FailSilently turns every error except configuration errors into a
	// "not sent" result.
	FailSilently          bool
	IgnoreRecipientStatus bool
	// Defaults is the overlay applied under each message's Options.
	Defaults Options
}

// Client sends messages through the Mandrill API. It holds at most one
// Session and must be driven by a single goroutine.
type Client struct {
	config     Config
	baseURL    string
	builder    *Builder
	newSession SessionFactory
	session    Session
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSessionFactory replaces how sessions are created.
func WithSessionFactory(f SessionFactory) ClientOption {
	return func(c *Client) {
		c.newSession = f
	}
}

// WithHTTPClient makes every session use hc.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.newSession = func() Session { return HTTPClientSession(hc) }
	}
}

// WithFailSilently overrides Config.FailSilently.
func WithFailSilently(silent bool) ClientOption {
	return func(c *Client) {
		c.config.FailSilently = silent
	}
}

// WithIgnoreRecipientStatus overrides Config.IgnoreRecipientStatus.
func WithIgnoreRecipientStatus(ignore bool) ClientOption {
	return func(c *Client) {
		c.config.IgnoreRecipientStatus = ignore
	}
}

// WithDefaults overrides Config.Defaults.
func WithDefaults(defaults Options) ClientOption {
	return func(c *Client) {
		c.config.Defaults = defaults
	}
}

// NewClient validates cfg and creates a client. A missing API key is a
// configuration error.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	c := &Client{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if strings.TrimSpace(c.config.APIKey) == "" {
		return nil, mandrillErrors.NewWithMessage(ErrConfiguration, "Mandrill API key is required")
	}

	c.baseURL = strings.TrimRight(c.config.APIURL, "/")
	if c.baseURL == "" {
		c.baseURL = DefaultAPIURL
	}
	if c.newSession == nil {
		timeout := c.config.Timeout
		c.newSession = func() Session { return NewHTTPSession(timeout) }
	}
	c.builder = NewBuilder(c.config.APIKey, c.config.Defaults)

	return c, nil
}

// Builder returns the payload builder used by the client.
func (c *Client) Builder() *Builder {
	return c.builder
}

// Open creates a session if none is active. It reports whether it did, in
// which case the caller is responsible for Close.
func (c *Client) Open() bool {
	if c.session != nil {
		return false
	}
	c.session = c.newSession()
	return true
}

// Close releases the session. It is a no-op without one.
func (c *Client) Close() {
	if c.session == nil {
		return
	}
	c.session.Close()
	c.session = nil
}

// Send sends one message and reports whether Mandrill accepted it.
func (c *Client) Send(ctx context.Context, msg *Message) (bool, error) {
	if c.Open() {
		defer c.Close()
	}
	return c.send(ctx, msg)
}

// SendMessages sends msgs in order over one session and returns how many
// were accepted. The first error stops the batch unless the client fails
// silently. A session opened here is closed before returning.
func (c *Client) SendMessages(ctx context.Context, msgs []*Message) (int, error) {
	if c.Open() {
		defer c.Close()
	}

	sent := 0
	for _, msg := range msgs {
		ok, err := c.send(ctx, msg)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (c *Client) send(ctx context.Context, msg *Message) (bool, error) {
	msg.Response = nil
	if len(msg.Recipients()) == 0 {
		return false, nil
	}

	payload, err := c.builder.Build(msg)
	if err != nil {
		return c.fail(withContext(err, msg, nil, nil))
	}

	resp, err := c.postMessage(ctx, payload)
	msg.Response = resp
	if err != nil {
		return c.fail(withContext(err, msg, payload, resp))
	}

	if err := ValidateResponse(resp, c.config.IgnoreRecipientStatus); err != nil {
		return c.fail(withContext(err, msg, payload, resp))
	}

	logx.WithFields(logx.Fields{
		"endpoint":   payload.Endpoint(),
		"recipients": len(resp.Recipients),
	}).Debug("mandrillx: message accepted")
	return true, nil
}

func (c *Client) fail(err error) (bool, error) {
	if c.config.FailSilently && !IsConfiguration(err) {
		logx.WithError(err).Warn("mandrillx: send failed silently")
		return false, nil
	}
	return false, err
}

// postMessage posts payload and parses the send response. The returned
// response is nil only when no HTTP response was received.
func (c *Client) postMessage(ctx context.Context, payload *Payload) (*SendResponse, error) {
	status, body, err := c.post(ctx, payload.Endpoint(), payload)
	if err != nil {
		if status == 0 {
			return nil, err
		}
		return &SendResponse{StatusCode: status, Body: string(body)}, err
	}
	return ParseResponse(status, body)
}

// post encodes body as JSON and posts it to endpoint through the active
// session. A non-2xx status yields ErrTransport along with the status and
// body that were received.
func (c *Client) post(ctx context.Context, endpoint string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, serializationError(err)
	}

	session := c.session
	if session == nil {
		return 0, nil, mandrillErrors.NewWithMessage(ErrConfiguration, "Mandrill client session is not open")
	}

	url := c.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, mandrillErrors.NewWithCause(ErrConfiguration, err).WithDetail("url", url)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	logx.WithFields(logx.Fields{"url": url, "bytes": len(data)}).Debug("mandrillx: posting")

	resp, err := session.Do(req)
	if err != nil {
		return 0, nil, mandrillErrors.NewWithCause(ErrTransport, err).WithDetail("url", url)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, mandrillErrors.NewWithCause(ErrTransport, err).WithDetail("url", url)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, respBody, transportError(url, resp.StatusCode, respBody)
	}
	return resp.StatusCode, respBody, nil
}

func transportError(url string, status int, body []byte) error {
	e := mandrillErrors.NewWithMessage(ErrTransport, fmt.Sprintf("Mandrill API returned status %d", status)).
		WithDetail("url", url).
		WithDetail("status_code", status)
	if apiErr := decodeAPIError(body); apiErr != nil {
		e.Message = fmt.Sprintf("Mandrill API returned status %d: %s: %s", status, apiErr.Name, apiErr.Message)
		e.WithDetail("api_error", apiErr)
	}
	return e
}

// serializationError names the value that could not be encoded.
func serializationError(err error) error {
	e := mandrillErrors.NewWithCause(ErrSerialization, err)

	var typeErr *json.UnsupportedTypeError
	var valueErr *json.UnsupportedValueError
	var marshalerErr *json.MarshalerError
	switch {
	case errors.As(err, &typeErr):
		e.WithDetail("value_type", typeErr.Type.String())
	case errors.As(err, &valueErr):
		e.WithDetail("value", valueErr.Str)
	case errors.As(err, &marshalerErr):
		e.WithDetail("value_type", marshalerErr.Type.String())
	}
	return e
}
