package notifxmandrill

import (
	"context"
	"maps"

	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"github.com/Abraxas-365/mandrillx/pkg/notifx"
	"github.com/Abraxas-365/mandrillx/pkg/ptrx"
)

// MandrillProvider implements notifx.EmailSender and notifx.BulkEmailSender
// on top of a mandrillx.Client.
type MandrillProvider struct {
	client      *mandrillx.Client
	fromAddress string
}

// NewMandrillProvider creates a provider. fromAddress is used for messages
// without a From.
func NewMandrillProvider(client *mandrillx.Client, fromAddress string) *MandrillProvider {
	return &MandrillProvider{
		client:      client,
		fromAddress: fromAddress,
	}
}

// SendEmail sends a single email via Mandrill.
func (p *MandrillProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	m := p.toMessage(msg, notifx.ApplySendOptions(opts))

	ok, err := p.client.Send(ctx, m)
	if err != nil {
		return notifx.NewSendFailed(err).
			WithDetail("to", msg.To).
			WithDetail("subject", msg.Subject)
	}
	if !ok {
		return notifx.NewSendFailed(nil).WithDetail("to", msg.To)
	}
	return nil
}

// SendBulkEmail sends msgs over one Mandrill session. Failures are reported
// per message and do not stop the batch.
func (p *MandrillProvider) SendBulkEmail(ctx context.Context, msgs []notifx.EmailMessage, opts ...notifx.Option) ([]notifx.SendResult, error) {
	so := notifx.ApplySendOptions(opts)
	results := make([]notifx.SendResult, len(msgs))

	if p.client.Open() {
		defer p.client.Close()
	}

	for i, msg := range msgs {
		m := p.toMessage(msg, so)
		ok, err := p.client.Send(ctx, m)
		results[i] = result(msg, m.Response, ok, err)
	}
	return results, nil
}

func result(msg notifx.EmailMessage, resp *mandrillx.SendResponse, ok bool, err error) notifx.SendResult {
	r := notifx.SendResult{Success: ok && err == nil}
	if len(msg.To) > 0 {
		r.To = msg.To[0]
	}
	if resp != nil && len(resp.Recipients) > 0 {
		first := resp.Recipients[0]
		r.MessageID = first.ID
		r.Status = first.Status
		if first.Email != "" {
			r.To = first.Email
		}
	}
	switch {
	case err != nil:
		r.Error = err.Error()
	case !ok:
		r.Error = notifx.NewSendFailed(nil).Error()
	}
	return r
}

func (p *MandrillProvider) toMessage(msg notifx.EmailMessage, so notifx.SendOptions) *mandrillx.Message {
	m := &mandrillx.Message{
		Subject: msg.Subject,
		From:    msg.From,
		To:      msg.To,
		Cc:      msg.CC,
		Bcc:     msg.BCC,
		Headers: msg.Headers,
	}
	if m.From == "" {
		m.From = p.fromAddress
	}
	if msg.ReplyTo != "" {
		m.ReplyTo = []string{msg.ReplyTo}
	}

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.Body = msg.TextBody
		m.AttachAlternative(msg.HTMLBody, "text/html")
	case msg.HTMLBody != "":
		m.Body = msg.HTMLBody
		m.ContentSubtype = mandrillx.SubtypeHTML
	default:
		m.Body = msg.TextBody
	}

	for _, a := range msg.Attachments {
		m.Attachments = append(m.Attachments, mandrillx.Attachment{
			Filename:  a.Filename,
			Content:   a.Data,
			MIMEType:  a.ContentType,
			ContentID: a.ContentID,
		})
	}

	m.Options = options(so)
	if so.TemplateName != "" && msg.Subject == "" {
		m.Options.UseTemplateSubject = true
	}
	return m
}

func options(so notifx.SendOptions) mandrillx.Options {
	var o mandrillx.Options

	if len(so.Tags) > 0 {
		o.Tags = so.Tags
	}
	if len(so.Metadata) > 0 {
		o.Metadata = make(map[string]any, len(so.Metadata))
		for k, v := range so.Metadata {
			o.Metadata[k] = v
		}
	}
	if len(so.MergeVars) > 0 {
		o.GlobalMergeVars = maps.Clone(so.MergeVars)
	}
	if so.Subaccount != "" {
		o.Subaccount = ptrx.String(so.Subaccount)
	}
	if !so.SendAt.IsZero() {
		o.SendAt = mandrillx.SendAtTime(so.SendAt)
	}
	if so.TemplateName != "" {
		o.TemplateName = ptrx.String(so.TemplateName)
		o.TemplateContent = make(map[string]any, len(so.TemplateContent))
		for k, v := range so.TemplateContent {
			o.TemplateContent[k] = v
		}
	}
	return o
}
