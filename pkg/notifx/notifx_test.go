package notifx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/notifx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []notifx.EmailMessage
	fail map[string]bool
}

func (s *recordingSender) SendEmail(_ context.Context, msg notifx.EmailMessage, _ ...notifx.Option) error {
	if s.fail[msg.To[0]] {
		return errors.New("rejected")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestSendEmail_Validates(t *testing.T) {
	sender := &recordingSender{}
	client := notifx.NewClient(sender)

	err := client.SendEmail(context.Background(), notifx.EmailMessage{Subject: "hi"})
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, notifx.ErrInvalidMessage))

	err = client.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@example.com"}})
	assert.True(t, errx.IsCode(err, notifx.ErrInvalidMessage))

	// a stored template supplies the subject
	err = client.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@example.com"}},
		notifx.WithTemplate("welcome", nil))
	require.NoError(t, err)
	assert.Len(t, sender.sent, 1)
}

func TestSendEmail_NoProvider(t *testing.T) {
	err := notifx.NewClient(nil).SendEmail(context.Background(), notifx.EmailMessage{})
	assert.True(t, errx.IsCode(err, notifx.ErrNoProvider))
}

func TestSendBulkEmail_FallsBackToSingleSends(t *testing.T) {
	sender := &recordingSender{fail: map[string]bool{"bad@example.com": true}}
	client := notifx.NewClient(sender)

	results, err := client.SendBulkEmail(context.Background(), []notifx.EmailMessage{
		{To: []string{"a@example.com"}, Subject: "one"},
		{Subject: "no recipients"},
		{To: []string{"bad@example.com"}, Subject: "two"},
		{To: []string{"b@example.com"}, Subject: "three"},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.False(t, results[2].Success)
	assert.Equal(t, "rejected", results[2].Error)
	assert.Equal(t, "bad@example.com", results[2].To)
	assert.True(t, results[3].Success)
	assert.Len(t, sender.sent, 2)
}

type bulkSender struct {
	recordingSender
	batches [][]notifx.EmailMessage
}

func (s *bulkSender) SendBulkEmail(_ context.Context, msgs []notifx.EmailMessage, _ ...notifx.Option) ([]notifx.SendResult, error) {
	s.batches = append(s.batches, msgs)
	results := make([]notifx.SendResult, len(msgs))
	for i, m := range msgs {
		results[i] = notifx.SendResult{To: m.To[0], Success: true, MessageID: "id-" + m.Subject}
	}
	return results, nil
}

func TestSendBulkEmail_UsesBulkProvider(t *testing.T) {
	sender := &bulkSender{}
	client := notifx.NewClient(sender)

	results, err := client.SendBulkEmail(context.Background(), []notifx.EmailMessage{
		{Subject: "skipped"},
		{To: []string{"a@example.com"}, Subject: "one"},
	})
	require.NoError(t, err)

	require.Len(t, sender.batches, 1)
	assert.Len(t, sender.batches[0], 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "id-one", results[1].MessageID)
}

func TestApplySendOptions(t *testing.T) {
	so := notifx.ApplySendOptions([]notifx.Option{
		notifx.WithTags("a"),
		notifx.WithTags("b", "c"),
		notifx.WithSubaccount("eu"),
	})
	assert.Equal(t, []string{"a", "b", "c"}, so.Tags)
	assert.Equal(t, "eu", so.Subaccount)
}
