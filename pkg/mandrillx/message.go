package mandrillx

// Content subtypes for Message.ContentSubtype.
const (
	SubtypePlain = "plain"
	SubtypeHTML  = "html"
)

// Message is a generic email plus the Mandrill-specific Options that travel
// with it. The client never modifies a Message except to record Response.
type Message struct {
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Body    string `json:"body,omitempty" yaml:"body,omitempty"`
	// ContentSubtype selects whether Body is sent as text or html.
	ContentSubtype string   `json:"content_subtype,omitempty" yaml:"content_subtype,omitempty"`
	From           string   `json:"from,omitempty" yaml:"from,omitempty"`
	To             []string `json:"to,omitempty" yaml:"to,omitempty"`
	Cc             []string `json:"cc,omitempty" yaml:"cc,omitempty"`
	Bcc            []string `json:"bcc,omitempty" yaml:"bcc,omitempty"`
	ReplyTo        []string `json:"reply_to,omitempty" yaml:"reply_to,omitempty"`

	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Alternatives []Alternative     `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	Attachments  []Attachment      `json:"attachments,omitempty" yaml:"attachments,omitempty"`

	// Encoding is the charset for text attachments and encoded headers.
	// Empty means utf-8.
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`

	Options Options `json:"options" yaml:"options,omitempty"`

	// Response is set once Mandrill answered the send request, whether or
	// not the answer counted as a success.
	Response *SendResponse `json:"response,omitempty" yaml:"-"`
}

// Alternative is an extra body rendering. Only a single text/html
// alternative can be sent.
type Alternative struct {
	Content  string `json:"content" yaml:"content"`
	MIMEType string `json:"mimetype" yaml:"mimetype"`
}

// Recipients returns to, cc and bcc in order.
func (m *Message) Recipients() []string {
	all := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	all = append(all, m.To...)
	all = append(all, m.Cc...)
	return append(all, m.Bcc...)
}

// AttachAlternative adds an alternative rendering of the body.
func (m *Message) AttachAlternative(content, mimeType string) {
	m.Alternatives = append(m.Alternatives, Alternative{Content: content, MIMEType: mimeType})
}

// Attach adds a binary attachment.
func (m *Message) Attach(filename string, content []byte, mimeType string) {
	m.Attachments = append(m.Attachments, Attachment{Filename: filename, Content: content, MIMEType: mimeType})
}
