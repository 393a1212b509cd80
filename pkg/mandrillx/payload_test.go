package mandrillx_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"github.com/Abraxas-365/mandrillx/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessage() *mandrillx.Message {
	return &mandrillx.Message{
		Subject: "Subject here",
		Body:    "Here is the message.",
		From:    "from@example.com",
		To:      []string{"to@example.com"},
	}
}

func buildJSON(t *testing.T, b *mandrillx.Builder, msg *mandrillx.Message) map[string]any {
	t.Helper()

	p, err := b.Build(msg)
	require.NoError(t, err)
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func messageJSON(payload map[string]any) map[string]any {
	return payload["message"].(map[string]any)
}

func TestBuild_OmitsUnsetAttributes(t *testing.T) {
	payload := buildJSON(t, mandrillx.NewBuilder("test-key", mandrillx.Options{}), newMessage())
	message := messageJSON(payload)

	for _, key := range []string{
		"from_name", "important", "track_opens", "track_clicks", "auto_text", "auto_html",
		"inline_css", "url_strip_qs", "tracking_domain", "signing_domain", "return_path_domain",
		"merge_language", "tags", "preserve_recipients", "view_content_link", "subaccount",
		"google_analytics_domains", "google_analytics_campaign", "metadata",
		"global_merge_vars", "merge_vars", "recipient_metadata", "attachments", "images", "headers", "html",
	} {
		assert.NotContains(t, message, key)
	}
	for _, key := range []string{"async", "ip_pool", "send_at", "template_name", "template_content"} {
		assert.NotContains(t, payload, key)
	}

	assert.Equal(t, "test-key", payload["key"])
	assert.Equal(t, "Subject here", message["subject"])
	assert.Equal(t, "Here is the message.", message["text"])
	assert.Equal(t, "from@example.com", message["from_email"])
}

func TestBuild_CopiesSetAttributesIncludingFalse(t *testing.T) {
	msg := newMessage()
	msg.Options = mandrillx.Options{
		Important:               ptrx.Bool(true),
		TrackOpens:              ptrx.Bool(false),
		AutoText:                ptrx.Bool(false),
		TrackingDomain:          ptrx.String("click.example.com"),
		MergeLanguage:           ptrx.String("handlebars"),
		Tags:                    []string{"receipt", "eu"},
		GoogleAnalyticsDomains:  []string{"example.com"},
		GoogleAnalyticsCampaign: ptrx.String("launch"),
		Metadata:                map[string]any{"user_id": "45"},
	}

	message := messageJSON(buildJSON(t, mandrillx.NewBuilder("k", mandrillx.Options{}), msg))

	assert.Equal(t, true, message["important"])
	assert.Equal(t, false, message["track_opens"])
	assert.Equal(t, false, message["auto_text"])
	assert.Equal(t, "click.example.com", message["tracking_domain"])
	assert.Equal(t, "handlebars", message["merge_language"])
	assert.Equal(t, []any{"receipt", "eu"}, message["tags"])
	assert.Equal(t, []any{"example.com"}, message["google_analytics_domains"])
	assert.Equal(t, "launch", message["google_analytics_campaign"])
	assert.Equal(t, map[string]any{"user_id": "45"}, message["metadata"])
	assert.NotContains(t, message, "track_clicks")
}

func TestBuild_RecipientTypes(t *testing.T) {
	msg := newMessage()
	msg.To = []string{"A <a@x.com>"}
	msg.Cc = []string{"b@x.com"}
	msg.Bcc = []string{"c@x.com"}

	p, err := mandrillx.NewBuilder("k", mandrillx.Options{}).Build(msg)
	require.NoError(t, err)

	assert.Equal(t, []mandrillx.Recipient{
		{Email: "a@x.com", Name: "A", Type: "to"},
		{Email: "b@x.com", Type: "cc"},
		{Email: "c@x.com", Type: "bcc"},
	}, p.Message.To)
}

func TestBuild_MultipleBccFoldIntoTo(t *testing.T) {
	msg := newMessage()
	msg.Bcc = []string{"bcc1@example.com", "bcc2@example.com", "bcc3@example.com"}

	p, err := mandrillx.NewBuilder("k", mandrillx.Options{}).Build(msg)
	require.NoError(t, err)
	assert.Len(t, p.Message.To, 4)
	assert.Equal(t, "bcc", p.Message.To[3].Type)
}

func TestBuild_FromAndSubject(t *testing.T) {
	msg := newMessage()
	msg.From = "Sender Name <sender@example.com>"

	message := messageJSON(buildJSON(t, mandrillx.NewBuilder("k", mandrillx.Options{}), msg))
	assert.Equal(t, "sender@example.com", message["from_email"])
	assert.Equal(t, "Sender Name", message["from_name"])

	msg.Options.FromName = ptrx.String("Override")
	message = messageJSON(buildJSON(t, mandrillx.NewBuilder("k", mandrillx.Options{}), msg))
	assert.Equal(t, "Override", message["from_name"])
}

func TestBuild_ExplicitFromNameWithTemplateFrom(t *testing.T) {
	msg := newMessage()
	msg.From = "Sender Name <sender@example.com>"
	msg.Options.TemplateName = ptrx.String("welcome")
	msg.Options.UseTemplateFrom = true

	message := messageJSON(buildJSON(t, mandrillx.NewBuilder("k", mandrillx.Options{}), msg))
	assert.NotContains(t, message, "from_email")
	assert.NotContains(t, message, "from_name")

	msg.Options.FromName = ptrx.String("Explicit")
	message = messageJSON(buildJSON(t, mandrillx.NewBuilder("k", mandrillx.Options{}), msg))
	assert.NotContains(t, message, "from_email")
	assert.Equal(t, "Explicit", message["from_name"])

	msg.Options.FromName = nil
	defaults := mandrillx.Options{FromName: ptrx.String("Default Name")}
	message = messageJSON(buildJSON(t, mandrillx.NewBuilder("k", defaults), msg))
	assert.Equal(t, "Default Name", message["from_name"])
}

func TestBuild_ExplicitEmptyCollections(t *testing.T) {
	msg := newMessage()
	msg.Options.Tags = []string{}
	msg.Options.Metadata = map[string]any{}
	msg.Options.GlobalMergeVars = map[string]any{}
	msg.Options.MergeVars = map[string]map[string]any{}
	msg.Options.RecipientMetadata = map[string]map[string]any{}

	message := messageJSON(buildJSON(t, mandrillx.NewBuilder("k", mandrillx.Options{}), msg))
	assert.Equal(t, []any{}, message["tags"])
	assert.Equal(t, map[string]any{}, message["metadata"])
	assert.Equal(t, []any{}, message["global_merge_vars"])
	assert.Equal(t, []any{}, message["merge_vars"])
	assert.Equal(t, []any{}, message["recipient_metadata"])
}

func TestBuild_EmptyTagsOverrideDefaults(t *testing.T) {
	msg := newMessage()
	msg.Options.Tags = []string{}

	defaults := mandrillx.Options{Tags: []string{"default"}}
	message := messageJSON(buildJSON(t, mandrillx.NewBuilder("k", defaults), msg))
	assert.Equal(t, []any{}, message["tags"])
}

func TestBuild_HTMLBody(t *testing.T) {
	msg := newMessage()
	msg.Body = "<p>Hi</p>"
	msg.ContentSubtype = mandrillx.SubtypeHTML

	message := messageJSON(buildJSON(t, mandrillx.NewBuilder("k", mandrillx.Options{}), msg))
	assert.Equal(t, "<p>Hi</p>", message["html"])
	assert.NotContains(t, message, "text")
}

func TestBuild_Alternatives(t *testing.T) {
	builder := mandrillx.NewBuilder("k", mandrillx.Options{})

	msg := newMessage()
	msg.AttachAlternative("<p>This is an <strong>important</strong> message.</p>", "text/html")
	p, err := builder.Build(msg)
	require.NoError(t, err)
	assert.Equal(t, "Here is the message.", p.Message.Text)
	assert.Equal(t, "<p>This is an <strong>important</strong> message.</p>", p.Message.HTML)

	msg.AttachAlternative("<p>Second</p>", "text/html")
	_, err = builder.Build(msg)
	assert.True(t, errx.IsCode(err, mandrillx.ErrUnsupportedFeature))

	msg = newMessage()
	msg.Body = "<p>Body</p>"
	msg.ContentSubtype = mandrillx.SubtypeHTML
	msg.AttachAlternative("<p>Alternative</p>", "text/html")
	_, err = builder.Build(msg)
	assert.True(t, errx.IsCode(err, mandrillx.ErrUnsupportedFeature))
	assert.Contains(t, err.Error(), "the body would be lost")

	msg = newMessage()
	msg.AttachAlternative("{\\rtf1}", "application/rtf")
	_, err = builder.Build(msg)
	assert.True(t, errx.IsCode(err, mandrillx.ErrUnsupportedFeature))
}

func TestBuild_PartitionsAttachmentsAndImages(t *testing.T) {
	msg := newMessage()
	msg.Attach("test.png", pngBytes, "")
	msg.Attachments = append(msg.Attachments, mandrillx.Attachment{
		Filename:  "inline.png",
		Content:   pngBytes,
		MIMEType:  "image/png",
		ContentID: "<inline@example.com>",
	})

	p, err := mandrillx.NewBuilder("k", mandrillx.Options{}).Build(msg)
	require.NoError(t, err)

	require.Len(t, p.Message.Attachments, 1)
	assert.Equal(t, "test.png", p.Message.Attachments[0].Name)
	require.Len(t, p.Message.Images, 1)
	assert.Equal(t, "<inline@example.com>", p.Message.Images[0].Name)
	assert.Equal(t, "image/png", p.Message.Images[0].Type)
}

func TestBuild_Headers(t *testing.T) {
	msg := newMessage()
	msg.ReplyTo = []string{"Reply <reply@example.com>", "other@example.com"}
	msg.Headers = map[string]string{"X-Mailer": "mandrillx"}

	p, err := mandrillx.NewBuilder("k", mandrillx.Options{}).Build(msg)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Reply-To": `"Reply" <reply@example.com>, other@example.com`,
		"X-Mailer": "mandrillx",
	}, p.Message.Headers)

	msg.Headers["Reply-To"] = "explicit@example.com"
	p, err = mandrillx.NewBuilder("k", mandrillx.Options{}).Build(msg)
	require.NoError(t, err)
	assert.Equal(t, "explicit@example.com", p.Message.Headers["Reply-To"])
}

func TestBuild_MergeVars(t *testing.T) {
	defaults := mandrillx.Options{GlobalMergeVars: map[string]any{"GREETING": "Hi", "SITE": "example.com"}}
	msg := newMessage()
	msg.Options.GlobalMergeVars = map[string]any{"GREETING": "Hello"}
	msg.Options.MergeVars = map[string]map[string]any{
		"zoe@example.com":  {"NAME": "Zoe"},
		"adam@example.com": {"NAME": "Adam"},
	}
	msg.Options.RecipientMetadata = map[string]map[string]any{
		"zoe@example.com": {"id": 2},
	}

	p, err := mandrillx.NewBuilder("k", defaults).Build(msg)
	require.NoError(t, err)

	assert.Equal(t, []mandrillx.MergeVar{
		{Name: "GREETING", Content: "Hello"},
		{Name: "SITE", Content: "example.com"},
	}, p.Message.GlobalMergeVars)
	require.Len(t, p.Message.MergeVars, 2)
	assert.Equal(t, "adam@example.com", p.Message.MergeVars[0].Rcpt)
	assert.Equal(t, "zoe@example.com", p.Message.MergeVars[1].Rcpt)
	assert.Equal(t, []mandrillx.RecipientMetadata{{Rcpt: "zoe@example.com", Values: map[string]any{"id": 2}}}, p.Message.RecipientMetadata)

	assert.Equal(t, "Hi", defaults.GlobalMergeVars["GREETING"], "defaults must not be modified")
}

func TestBuild_DefaultsOverlay(t *testing.T) {
	defaults := mandrillx.Options{
		Subaccount:  ptrx.String("legacy"),
		TrackClicks: ptrx.Bool(true),
		Async:       ptrx.Bool(true),
		IPPool:      ptrx.String("Main Pool"),
		Tags:        []string{"default"},
	}
	msg := newMessage()
	msg.Options.Subaccount = ptrx.String("new")
	msg.Options.TrackClicks = ptrx.Bool(false)
	msg.Options.IPPool = ptrx.String("Transactional")

	payload := buildJSON(t, mandrillx.NewBuilder("k", defaults), msg)
	message := messageJSON(payload)

	assert.Equal(t, "new", message["subaccount"])
	assert.Equal(t, false, message["track_clicks"])
	assert.Equal(t, []any{"default"}, message["tags"])
	assert.Equal(t, true, payload["async"])
	assert.Equal(t, "Transactional", payload["ip_pool"])
}

func TestBuild_Template(t *testing.T) {
	msg := newMessage()
	msg.Options.TemplateName = ptrx.String("welcome")
	msg.Options.UseTemplateFrom = true
	msg.Options.UseTemplateSubject = true

	p, err := mandrillx.NewBuilder("k", mandrillx.Options{}).Build(msg)
	require.NoError(t, err)
	assert.Equal(t, mandrillx.EndpointSendTemplate, p.Endpoint())

	payload := buildJSON(t, mandrillx.NewBuilder("k", mandrillx.Options{}), msg)
	assert.Equal(t, "welcome", payload["template_name"])
	assert.Equal(t, []any{}, payload["template_content"])

	message := messageJSON(payload)
	assert.NotContains(t, message, "from_email")
	assert.NotContains(t, message, "from_name")
	assert.NotContains(t, message, "subject")

	msg.Options.TemplateContent = map[string]any{"main": "<p>body</p>", "footer": "bye"}
	p, err = mandrillx.NewBuilder("k", mandrillx.Options{}).Build(msg)
	require.NoError(t, err)
	assert.Equal(t, []mandrillx.MergeVar{
		{Name: "footer", Content: "bye"},
		{Name: "main", Content: "<p>body</p>"},
	}, p.TemplateContent)
}

func TestBuild_PlainSendEndpoint(t *testing.T) {
	p, err := mandrillx.NewBuilder("k", mandrillx.Options{}).Build(newMessage())
	require.NoError(t, err)
	assert.Equal(t, mandrillx.EndpointSend, p.Endpoint())
}

func TestBuild_SendAt(t *testing.T) {
	msg := newMessage()
	msg.Options.SendAt = mandrillx.SendAtString("2013-11-12 01:02:03")

	payload := buildJSON(t, mandrillx.NewBuilder("k", mandrillx.Options{}), msg)
	assert.Equal(t, "2013-11-12 01:02:03", payload["send_at"])
}

func TestBuild_Tags(t *testing.T) {
	builder := mandrillx.NewBuilder("k", mandrillx.Options{})

	msg := newMessage()
	msg.Options.Tags = []string{"_reserved"}
	_, err := builder.Build(msg)
	assert.True(t, errx.IsCode(err, mandrillx.ErrInvalidTag))

	msg.Options.Tags = []string{"ok", strings.Repeat("x", 51), strings.Repeat("y", 50)}
	p, err := builder.Build(msg)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", strings.Repeat("y", 50)}, p.Message.Tags)
}

func TestBuild_InternationalRecipient(t *testing.T) {
	msg := newMessage()
	msg.To = []string{"Jöhn <john@bücher.example>"}

	p, err := mandrillx.NewBuilder("k", mandrillx.Options{}).Build(msg)
	require.NoError(t, err)
	assert.Equal(t, "john@xn--bcher-kva.example", p.Message.To[0].Email)
	assert.Equal(t, "Jöhn", p.Message.To[0].Name)
}
