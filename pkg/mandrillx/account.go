package mandrillx

import (
	"context"
	"encoding/json"
	"strings"
)

// Account API endpoints.
const (
	endpointPing    = "users/ping.json"
	endpointInfo    = "users/info.json"
	endpointSenders = "users/senders.json"
	endpointTags    = "tags/list.json"
	endpointURLs    = "urls/list.json"
)

// Stats is a block of aggregate counters as reported by users/info and
// tags/list.
type Stats struct {
	Sent         int `json:"sent"`
	HardBounces  int `json:"hard_bounces"`
	SoftBounces  int `json:"soft_bounces"`
	Rejects      int `json:"rejects"`
	Complaints   int `json:"complaints"`
	Unsubs       int `json:"unsubs"`
	Opens        int `json:"opens"`
	UniqueOpens  int `json:"unique_opens"`
	Clicks       int `json:"clicks"`
	UniqueClicks int `json:"unique_clicks"`
}

// UserInfo is the account summary returned by users/info.
type UserInfo struct {
	Username    string           `json:"username"`
	CreatedAt   string           `json:"created_at"`
	PublicID    string           `json:"public_id"`
	Reputation  int              `json:"reputation"`
	HourlyQuota int              `json:"hourly_quota"`
	Backlog     int              `json:"backlog"`
	Stats       map[string]Stats `json:"stats"`
}

// Sender is one sending address known to the account.
type Sender struct {
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
	Stats
}

// Tag is one tag with its lifetime counters.
type Tag struct {
	Tag string `json:"tag"`
	Stats
}

// TrackedURL is one tracked link with its counters.
type TrackedURL struct {
	URL          string `json:"url"`
	Sent         int    `json:"sent"`
	Clicks       int    `json:"clicks"`
	UniqueClicks int    `json:"unique_clicks"`
}

type keyRequest struct {
	Key string `json:"key"`
}

// Ping checks the API key and connectivity. Mandrill answers "PONG!".
func (c *Client) Ping(ctx context.Context) (string, error) {
	var pong string
	if err := c.call(ctx, endpointPing, &pong); err != nil {
		return "", err
	}
	return pong, nil
}

// UserInfo returns the account summary.
func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	var info UserInfo
	if err := c.call(ctx, endpointInfo, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Senders lists the addresses that have sent through the account.
func (c *Client) Senders(ctx context.Context) ([]Sender, error) {
	var senders []Sender
	if err := c.call(ctx, endpointSenders, &senders); err != nil {
		return nil, err
	}
	return senders, nil
}

// Tags lists every tag used by the account.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.call(ctx, endpointTags, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// URLs lists the most clicked tracked URLs.
func (c *Client) URLs(ctx context.Context) ([]TrackedURL, error) {
	var urls []TrackedURL
	if err := c.call(ctx, endpointURLs, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// call posts the API key to endpoint and decodes the answer into out.
// Account calls never fail silently.
func (c *Client) call(ctx context.Context, endpoint string, out any) error {
	if c.Open() {
		defer c.Close()
	}

	status, body, err := c.post(ctx, endpoint, keyRequest{Key: c.config.APIKey})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return mandrillErrors.NewWithCause(ErrTransport, err).
			WithDetail("endpoint", endpoint).
			WithDetail("status_code", status).
			WithDetail("body", strings.TrimSpace(string(body)))
	}
	return nil
}
