package notifx

import (
	"context"
)

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error
}

// BulkEmailSender sends multiple emails in a batch.
type BulkEmailSender interface {
	SendBulkEmail(ctx context.Context, msgs []EmailMessage, opts ...Option) ([]SendResult, error)
}

// Notifier is the high-level notification interface.
type Notifier interface {
	EmailSender
	BulkEmailSender
}

// Client is the main entry point for sending notifications.
type Client struct {
	provider EmailSender
}

// NewClient creates a new notification client.
func NewClient(provider EmailSender) *Client {
	return &Client{provider: provider}
}

// SendEmail sends an email through the configured provider.
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error {
	if c.provider == nil {
		return notifxErrors.New(ErrNoProvider)
	}
	if err := validate(msg, ApplySendOptions(opts)); err != nil {
		return err
	}
	return c.provider.SendEmail(ctx, msg, opts...)
}

// SendBulkEmail sends msgs as one batch when the provider supports it and
// one by one otherwise. Invalid messages are reported in their result
// without reaching the provider.
func (c *Client) SendBulkEmail(ctx context.Context, msgs []EmailMessage, opts ...Option) ([]SendResult, error) {
	if c.provider == nil {
		return nil, notifxErrors.New(ErrNoProvider)
	}

	so := ApplySendOptions(opts)
	results := make([]SendResult, len(msgs))
	valid := make([]EmailMessage, 0, len(msgs))
	index := make([]int, 0, len(msgs))

	for i, msg := range msgs {
		results[i].To = firstRecipient(msg)
		if err := validate(msg, so); err != nil {
			results[i].Error = err.Error()
			continue
		}
		valid = append(valid, msg)
		index = append(index, i)
	}

	if bulk, ok := c.provider.(BulkEmailSender); ok {
		sent, err := bulk.SendBulkEmail(ctx, valid, opts...)
		for j, r := range sent {
			results[index[j]] = r
		}
		return results, err
	}

	for j, msg := range valid {
		i := index[j]
		if err := c.provider.SendEmail(ctx, msg, opts...); err != nil {
			results[i].Error = err.Error()
			continue
		}
		results[i].Success = true
	}
	return results, nil
}

func validate(msg EmailMessage, so SendOptions) error {
	if len(msg.To) == 0 {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "no recipients")
	}
	// A stored template can supply the subject.
	if msg.Subject == "" && so.TemplateName == "" {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty subject")
	}
	return nil
}

func firstRecipient(msg EmailMessage) string {
	if len(msg.To) > 0 {
		return msg.To[0]
	}
	return ""
}
