package notifx

import "time"

// SendOptions holds optional configuration for a send operation.
type SendOptions struct {
	Tags            []string
	Metadata        map[string]string
	TemplateName    string
	TemplateContent map[string]string
	MergeVars       map[string]any
	Subaccount      string
	SendAt          time.Time
}

// Option is a functional option for send operations.
type Option func(*SendOptions)

// WithTags labels the message for provider-side reporting.
func WithTags(tags ...string) Option {
	return func(o *SendOptions) {
		o.Tags = append(o.Tags, tags...)
	}
}

// WithMetadata attaches key/value data that is echoed back in webhooks.
func WithMetadata(metadata map[string]string) Option {
	return func(o *SendOptions) {
		o.Metadata = metadata
	}
}

// WithTemplate renders the message from a template stored at the provider.
func WithTemplate(name string, content map[string]string) Option {
	return func(o *SendOptions) {
		o.TemplateName = name
		o.TemplateContent = content
	}
}

// WithMergeVars sets variables substituted into the body for every recipient.
func WithMergeVars(vars map[string]any) Option {
	return func(o *SendOptions) {
		o.MergeVars = vars
	}
}

// WithSubaccount sends through a provider subaccount.
func WithSubaccount(id string) Option {
	return func(o *SendOptions) {
		o.Subaccount = id
	}
}

// WithSendAt schedules delivery.
func WithSendAt(t time.Time) Option {
	return func(o *SendOptions) {
		o.SendAt = t
	}
}

// ApplySendOptions folds opts into a SendOptions value.
func ApplySendOptions(opts []Option) SendOptions {
	var so SendOptions
	for _, o := range opts {
		o(&so)
	}
	return so
}
