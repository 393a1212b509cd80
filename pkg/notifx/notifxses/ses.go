package notifxses

import (
	"context"
	"regexp"
	"sort"

	"github.com/Abraxas-365/mandrillx/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// API is the subset of *ses.Client used here.
type API interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESProvider implements notifx.EmailSender and notifx.BulkEmailSender using
// AWS SES. Tags and metadata become SES message tags and the subaccount
// option selects the configuration set.
type SESProvider struct {
	client      API
	fromAddress string
}

// NewSESProvider creates a new SES email provider.
func NewSESProvider(client API, fromAddress string) *SESProvider {
	return &SESProvider{
		client:      client,
		fromAddress: fromAddress,
	}
}

// SendEmail sends a single email via SES.
func (p *SESProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	_, err := p.send(ctx, msg, notifx.ApplySendOptions(opts))
	return err
}

// SendBulkEmail sends msgs one by one and reports each outcome.
func (p *SESProvider) SendBulkEmail(ctx context.Context, msgs []notifx.EmailMessage, opts ...notifx.Option) ([]notifx.SendResult, error) {
	so := notifx.ApplySendOptions(opts)
	results := make([]notifx.SendResult, len(msgs))

	for i, msg := range msgs {
		if len(msg.To) > 0 {
			results[i].To = msg.To[0]
		}
		id, err := p.send(ctx, msg, so)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		results[i].MessageID = id
		results[i].Success = true
	}
	return results, nil
}

func (p *SESProvider) send(ctx context.Context, msg notifx.EmailMessage, so notifx.SendOptions) (string, error) {
	input, err := p.buildInput(msg, so)
	if err != nil {
		return "", err
	}

	out, err := p.client.SendEmail(ctx, input)
	if err != nil {
		return "", sesErrors.NewWithCause(ErrSendFailed, err).
			WithDetail("to", msg.To).
			WithDetail("subject", msg.Subject)
	}
	return aws.ToString(out.MessageId), nil
}

func (p *SESProvider) buildInput(msg notifx.EmailMessage, so notifx.SendOptions) (*ses.SendEmailInput, error) {
	switch {
	case len(msg.Attachments) > 0:
		return nil, sesErrors.NewWithMessage(ErrUnsupported, "SES SendEmail cannot carry attachments")
	case so.TemplateName != "":
		return nil, sesErrors.NewWithMessage(ErrUnsupported, "Stored templates are not supported").
			WithDetail("template", so.TemplateName)
	case !so.SendAt.IsZero():
		return nil, sesErrors.NewWithMessage(ErrUnsupported, "Scheduled sending is not supported")
	}

	from := msg.From
	if from == "" {
		from = p.fromAddress
	}

	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = utf8Content(msg.TextBody)
	}
	if msg.HTMLBody != "" {
		body.Html = utf8Content(msg.HTMLBody)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.CC,
			BccAddresses: msg.BCC,
		},
		Message: &types.Message{
			Subject: utf8Content(msg.Subject),
			Body:    body,
		},
		Tags: messageTags(so),
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if so.Subaccount != "" {
		input.ConfigurationSetName = aws.String(so.Subaccount)
	}
	return input, nil
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

var tagUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// messageTags maps each tag to tag_<tag>=true and each metadata entry to
// its key, both reduced to the characters SES allows.
func messageTags(so notifx.SendOptions) []types.MessageTag {
	var tags []types.MessageTag
	for _, t := range so.Tags {
		tags = append(tags, messageTag("tag_"+t, "true"))
	}

	keys := make([]string, 0, len(so.Metadata))
	for k := range so.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tags = append(tags, messageTag(k, so.Metadata[k]))
	}
	return tags
}

func messageTag(name, value string) types.MessageTag {
	return types.MessageTag{
		Name:  aws.String(sesSafe(name)),
		Value: aws.String(sesSafe(value)),
	}
}

func sesSafe(s string) string {
	s = tagUnsafe.ReplaceAllString(s, "_")
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}
