package notifxses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSendEmail_BuildsInput(t *testing.T) {
	fake := &fakeSES{}
	p := NewSESProvider(fake, "noreply@example.com")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"a@example.com"},
		ReplyTo:  "help@example.com",
		Subject:  "Hi",
		HTMLBody: "<p>Hi</p>",
	}, notifx.WithTags("welcome email"), notifx.WithMetadata(map[string]string{"user.id": "42"}),
		notifx.WithSubaccount("transactional"))
	require.NoError(t, err)

	in := fake.inputs[0]
	assert.Equal(t, "noreply@example.com", aws.ToString(in.Source))
	assert.Equal(t, []string{"help@example.com"}, in.ReplyToAddresses)
	assert.Equal(t, "transactional", aws.ToString(in.ConfigurationSetName))
	assert.Equal(t, "<p>Hi</p>", aws.ToString(in.Message.Body.Html.Data))
	assert.Nil(t, in.Message.Body.Text)

	require.Len(t, in.Tags, 2)
	assert.Equal(t, "tag_welcome_email", aws.ToString(in.Tags[0].Name))
	assert.Equal(t, "user_id", aws.ToString(in.Tags[1].Name))
	assert.Equal(t, "42", aws.ToString(in.Tags[1].Value))
}

func TestSendEmail_Unsupported(t *testing.T) {
	p := NewSESProvider(&fakeSES{}, "noreply@example.com")
	msg := notifx.EmailMessage{To: []string{"a@example.com"}, Subject: "x"}

	err := p.SendEmail(context.Background(), msg, notifx.WithTemplate("welcome", nil))
	assert.True(t, errx.IsCode(err, ErrUnsupported))

	err = p.SendEmail(context.Background(), msg, notifx.WithSendAt(time.Now()))
	assert.True(t, errx.IsCode(err, ErrUnsupported))

	msg.Attachments = []notifx.Attachment{{Filename: "a.pdf"}}
	err = p.SendEmail(context.Background(), msg)
	assert.True(t, errx.IsCode(err, ErrUnsupported))
}

func TestSendBulkEmail(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	p := NewSESProvider(fake, "noreply@example.com")

	results, err := p.SendBulkEmail(context.Background(), []notifx.EmailMessage{
		{To: []string{"a@example.com"}, Subject: "x"},
	})
	require.NoError(t, err)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "throttled")

	fake.err = nil
	results, _ = p.SendBulkEmail(context.Background(), []notifx.EmailMessage{
		{To: []string{"a@example.com"}, Subject: "x"},
	})
	assert.True(t, results[0].Success)
	assert.Equal(t, "ses-1", results[0].MessageID)
}
