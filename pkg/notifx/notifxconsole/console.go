package notifxconsole

import (
	"context"
	"strings"

	"github.com/Abraxas-365/mandrillx/pkg/logx"
	"github.com/Abraxas-365/mandrillx/pkg/notifx"
)

// ConsoleProvider prints emails to the terminal via logx. Intended for development and testing.
type ConsoleProvider struct{}

// NewConsoleProvider creates a new console email provider.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendEmail logs the email details instead of sending it.
func (p *ConsoleProvider) SendEmail(_ context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	so := notifx.ApplySendOptions(opts)

	fields := logx.Fields{
		"from":        msg.From,
		"to":          strings.Join(msg.To, ", "),
		"subject":     msg.Subject,
		"attachments": len(msg.Attachments),
	}
	if len(so.Tags) > 0 {
		fields["tags"] = strings.Join(so.Tags, ",")
	}
	if so.TemplateName != "" {
		fields["template"] = so.TemplateName
	}
	if !so.SendAt.IsZero() {
		fields["send_at"] = so.SendAt.UTC().Format("2006-01-02 15:04:05")
	}
	logx.WithFields(fields).Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	return nil
}
