package mandrillx

import (
	"encoding/json"
	"strings"

	"github.com/Abraxas-365/mandrillx/pkg/logx"
)

// Endpoint paths relative to the API base URL.
const (
	EndpointSend         = "messages/send.json"
	EndpointSendTemplate = "messages/send-template.json"
)

const maxTagLength = 50

// Payload is the request body of a send call.
type Payload struct {
	Key     string          `json:"key"`
	Message *MessagePayload `json:"message"`
	Async   *bool           `json:"async,omitempty"`
	IPPool  *string         `json:"ip_pool,omitempty"`
	SendAt  *string         `json:"send_at,omitempty"`
	*TemplateFields
}

// TemplateFields are present only on template sends; template_content is
// always emitted, possibly empty.
type TemplateFields struct {
	TemplateName    string     `json:"template_name"`
	TemplateContent []MergeVar `json:"template_content"`
}

// Endpoint returns the API path the payload is posted to.
func (p *Payload) Endpoint() string {
	if p.TemplateFields != nil {
		return EndpointSendTemplate
	}
	return EndpointSend
}

// Recipient is one entry of the unified to list.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type"`
}

// MessagePayload is the "message" object of a send call.
type MessagePayload struct {
	Text      string            `json:"text,omitempty"`
	HTML      string            `json:"html,omitempty"`
	Subject   *string           `json:"subject,omitempty"`
	FromEmail string            `json:"from_email,omitempty"`
	FromName  *string           `json:"from_name,omitempty"`
	To        []Recipient       `json:"to"`
	Headers   map[string]string `json:"headers,omitempty"`

	Important               *bool    `json:"important,omitempty"`
	TrackOpens              *bool    `json:"track_opens,omitempty"`
	TrackClicks             *bool    `json:"track_clicks,omitempty"`
	AutoText                *bool    `json:"auto_text,omitempty"`
	AutoHTML                *bool    `json:"auto_html,omitempty"`
	InlineCSS               *bool    `json:"inline_css,omitempty"`
	URLStripQS              *bool    `json:"url_strip_qs,omitempty"`
	TrackingDomain          *string  `json:"tracking_domain,omitempty"`
	SigningDomain           *string  `json:"signing_domain,omitempty"`
	ReturnPathDomain        *string  `json:"return_path_domain,omitempty"`
	MergeLanguage           *string  `json:"merge_language,omitempty"`
	Tags                    []string `json:"tags,omitempty"`
	PreserveRecipients      *bool    `json:"preserve_recipients,omitempty"`
	ViewContentLink         *bool    `json:"view_content_link,omitempty"`
	Subaccount              *string  `json:"subaccount,omitempty"`
	GoogleAnalyticsDomains  []string `json:"google_analytics_domains,omitempty"`
	GoogleAnalyticsCampaign *string  `json:"google_analytics_campaign,omitempty"`

	Metadata          map[string]any       `json:"metadata,omitempty"`
	GlobalMergeVars   []MergeVar           `json:"global_merge_vars,omitempty"`
	MergeVars         []RecipientMergeVars `json:"merge_vars,omitempty"`
	RecipientMetadata []RecipientMetadata  `json:"recipient_metadata,omitempty"`

	Attachments []EncodedAttachment `json:"attachments,omitempty"`
	Images      []EncodedAttachment `json:"images,omitempty"`
}

// MarshalJSON omits collection attributes that were never set and emits the
// ones explicitly set to empty.
func (m MessagePayload) MarshalJSON() ([]byte, error) {
	type plain MessagePayload
	return json.Marshal(struct {
		plain
		Tags              *[]string             `json:"tags,omitempty"`
		Metadata          *map[string]any       `json:"metadata,omitempty"`
		GlobalMergeVars   *[]MergeVar           `json:"global_merge_vars,omitempty"`
		MergeVars         *[]RecipientMergeVars `json:"merge_vars,omitempty"`
		RecipientMetadata *[]RecipientMetadata  `json:"recipient_metadata,omitempty"`
	}{
		plain:             plain(m),
		Tags:              setOrNil(m.Tags),
		Metadata:          setOrNilMap(m.Metadata),
		GlobalMergeVars:   setOrNil(m.GlobalMergeVars),
		MergeVars:         setOrNil(m.MergeVars),
		RecipientMetadata: setOrNil(m.RecipientMetadata),
	})
}

func setOrNil[T any](s []T) *[]T {
	if s == nil {
		return nil
	}
	return &s
}

func setOrNilMap[V any](m map[string]V) *map[string]V {
	if m == nil {
		return nil
	}
	return &m
}

// Builder turns messages into payloads. Defaults are applied under every
// message's own Options.
type Builder struct {
	apiKey   string
	defaults Options
}

// NewBuilder creates a builder for the given API key and defaults overlay.
func NewBuilder(apiKey string, defaults Options) *Builder {
	return &Builder{apiKey: apiKey, defaults: defaults}
}

// Build produces the payload for msg. It never performs I/O.
func (b *Builder) Build(msg *Message) (*Payload, error) {
	opts := msg.Options.Overlay(b.defaults)

	m, err := b.baseMessage(msg, opts)
	if err != nil {
		return nil, err
	}
	if err := applyOptionalAttributes(m, opts); err != nil {
		return nil, err
	}
	applyMergeVars(m, opts)
	if err := applyAlternatives(m, msg); err != nil {
		return nil, err
	}
	if err := applyAttachments(m, msg); err != nil {
		return nil, err
	}

	p := &Payload{
		Key:     b.apiKey,
		Message: m,
		Async:   opts.Async,
		IPPool:  opts.IPPool,
	}
	if opts.SendAt != nil {
		s := opts.SendAt.String()
		p.SendAt = &s
	}
	if opts.TemplateName != nil {
		p.TemplateFields = &TemplateFields{
			TemplateName:    *opts.TemplateName,
			TemplateContent: ExpandMergeVars(opts.TemplateContent),
		}
	}
	return p, nil
}

func (b *Builder) baseMessage(msg *Message, opts Options) (*MessagePayload, error) {
	m := &MessagePayload{To: []Recipient{}}

	if msg.ContentSubtype == SubtypeHTML {
		m.HTML = msg.Body
	} else {
		m.Text = msg.Body
	}

	for _, group := range []struct {
		kind  string
		addrs []string
	}{{"to", msg.To}, {"cc", msg.Cc}, {"bcc", msg.Bcc}} {
		for _, raw := range group.addrs {
			name, email := ParseAddress(raw)
			email, err := sanitizeEmail(email)
			if err != nil {
				return nil, err
			}
			m.To = append(m.To, Recipient{Email: email, Name: name, Type: group.kind})
		}
	}

	if !opts.UseTemplateFrom {
		name, email := ParseAddress(msg.From)
		m.FromEmail = email
		if name != "" {
			m.FromName = &name
		}
	}
	if !opts.UseTemplateSubject {
		subject := msg.Subject
		m.Subject = &subject
	}

	headers, err := buildHeaders(msg)
	if err != nil {
		return nil, err
	}
	m.Headers = headers

	return m, nil
}

// buildHeaders merges a Reply-To built from msg.ReplyTo with the caller's
// headers. Caller headers win.
func buildHeaders(msg *Message) (map[string]string, error) {
	if len(msg.ReplyTo) == 0 && len(msg.Headers) == 0 {
		return nil, nil
	}

	headers := make(map[string]string, len(msg.Headers)+1)
	if len(msg.ReplyTo) > 0 {
		addrs := make([]string, 0, len(msg.ReplyTo))
		for _, raw := range msg.ReplyTo {
			addr, err := SanitizeAddress(raw, msg.Encoding)
			if err != nil {
				return nil, err
			}
			addrs = append(addrs, addr)
		}
		headers["Reply-To"] = strings.Join(addrs, ", ")
	}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	return headers, nil
}

func applyOptionalAttributes(m *MessagePayload, opts Options) error {
	if opts.FromName != nil {
		m.FromName = opts.FromName
	}
	m.Important = opts.Important
	m.TrackOpens = opts.TrackOpens
	m.TrackClicks = opts.TrackClicks
	m.AutoText = opts.AutoText
	m.AutoHTML = opts.AutoHTML
	m.InlineCSS = opts.InlineCSS
	m.URLStripQS = opts.URLStripQS
	m.TrackingDomain = opts.TrackingDomain
	m.SigningDomain = opts.SigningDomain
	m.ReturnPathDomain = opts.ReturnPathDomain
	m.MergeLanguage = opts.MergeLanguage
	m.PreserveRecipients = opts.PreserveRecipients
	m.ViewContentLink = opts.ViewContentLink
	m.Subaccount = opts.Subaccount
	m.GoogleAnalyticsDomains = opts.GoogleAnalyticsDomains
	m.GoogleAnalyticsCampaign = opts.GoogleAnalyticsCampaign
	m.Metadata = opts.Metadata

	tags, err := validTags(opts.Tags)
	if err != nil {
		return err
	}
	m.Tags = tags
	return nil
}

// validTags rejects tags Mandrill reserves and drops the ones it would
// truncate.
func validTags(tags []string) ([]string, error) {
	if tags == nil {
		return nil, nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if strings.HasPrefix(tag, "_") {
			return nil, mandrillErrors.NewWithMessage(ErrInvalidTag, "Tags starting with an underscore are reserved").
				WithDetail("tag", tag)
		}
		if len(tag) > maxTagLength {
			logx.WithFields(logx.Fields{"tag": tag, "max": maxTagLength}).Warn("mandrillx: dropping tag longer than the Mandrill limit")
			continue
		}
		out = append(out, tag)
	}
	return out, nil
}

func applyMergeVars(m *MessagePayload, opts Options) {
	if opts.GlobalMergeVars != nil {
		m.GlobalMergeVars = ExpandMergeVars(opts.GlobalMergeVars)
	}
	if opts.MergeVars != nil {
		m.MergeVars = ExpandRecipientVars(opts.MergeVars)
	}
	if opts.RecipientMetadata != nil {
		m.RecipientMetadata = ExpandRecipientMetadata(opts.RecipientMetadata)
	}
}

func applyAlternatives(m *MessagePayload, msg *Message) error {
	if len(msg.Alternatives) == 0 {
		return nil
	}
	if len(msg.Alternatives) > 1 {
		return mandrillErrors.NewWithMessage(ErrUnsupportedFeature, "Too many alternatives attached to the message; Mandrill only accepts plain text and html").
			WithDetail("alternatives", len(msg.Alternatives))
	}

	alt := msg.Alternatives[0]
	if alt.MIMEType != "text/html" {
		return mandrillErrors.NewWithMessage(ErrUnsupportedFeature, "Invalid alternative mimetype "+alt.MIMEType+"; Mandrill only accepts plain text and html").
			WithDetail("mimetype", alt.MIMEType)
	}
	if msg.ContentSubtype == SubtypeHTML {
		return mandrillErrors.NewWithMessage(ErrUnsupportedFeature, "An html alternative cannot be attached to an html body; Mandrill has a single html field and the body would be lost")
	}
	m.HTML = alt.Content
	return nil
}

func applyAttachments(m *MessagePayload, msg *Message) error {
	for _, att := range msg.Attachments {
		encoded, embedded, err := EncodeAttachment(att, msg.Encoding)
		if err != nil {
			return err
		}
		if embedded {
			m.Images = append(m.Images, encoded)
		} else {
			m.Attachments = append(m.Attachments, encoded)
		}
	}
	return nil
}
