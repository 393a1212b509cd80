package mandrillx

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/quotedprintable"
	"net/textproto"
	"path"
	"strings"

	"github.com/Abraxas-365/mandrillx/pkg/fsx"
)

const fallbackMIMEType = "application/octet-stream"

// Attachment is a file attached to a message. Content holds raw bytes; Text,
// when set instead, is converted with the message charset before encoding.
// An image with a ContentID is sent inline.
type Attachment struct {
	Filename  string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Content   []byte `json:"content,omitempty" yaml:"content,omitempty"`
	Text      string `json:"text,omitempty" yaml:"text,omitempty"`
	MIMEType  string `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`
	ContentID string `json:"content_id,omitempty" yaml:"content_id,omitempty"`
}

// EncodedAttachment is the wire form of an attachment or inline image.
type EncodedAttachment struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// EncodeAttachment resolves the MIME type of att, checks that Mandrill will
// deliver it and base64 encodes its content. embedded reports an inline
// image, whose name is its Content-ID.
func EncodeAttachment(att Attachment, charset string) (encoded EncodedAttachment, embedded bool, err error) {
	mimeType := resolveMIMEType(att)
	if !deliverableType(mimeType) {
		return EncodedAttachment{}, false, mandrillErrors.NewWithMessage(ErrUnsupportedFeature,
			"Mandrill does not deliver attachments of type "+mimeType).
			WithDetail("filename", att.Filename).
			WithDetail("mimetype", mimeType)
	}

	content := att.Content
	if content == nil && att.Text != "" {
		enc, label, err := lookupCharset(charset)
		if err != nil {
			return EncodedAttachment{}, false, err
		}
		content, err = enc.NewEncoder().Bytes([]byte(att.Text))
		if err != nil {
			return EncodedAttachment{}, false, mandrillErrors.NewWithCause(ErrEncoding, err).
				WithDetail("filename", att.Filename).
				WithDetail("charset", label)
		}
	}

	name := att.Filename
	embedded = strings.HasPrefix(mimeType, "image/") && att.ContentID != ""
	if embedded {
		name = att.ContentID
	}

	return EncodedAttachment{
		Type:    mimeType,
		Name:    name,
		Content: base64.StdEncoding.EncodeToString(content),
	}, embedded, nil
}

func resolveMIMEType(att Attachment) string {
	mimeType := att.MIMEType
	if mimeType == "" && att.Filename != "" {
		mimeType = mime.TypeByExtension(path.Ext(att.Filename))
	}
	if mimeType == "" {
		return fallbackMIMEType
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	return strings.ToLower(mimeType)
}

// deliverableType lists what Mandrill accepts; other types are dropped
// by the API without an error.
func deliverableType(mimeType string) bool {
	main, _, _ := strings.Cut(mimeType, "/")
	return main == "text" || main == "image" || mimeType == "application/pdf"
}

// AttachmentFromPart converts a MIME part into an Attachment, decoding its
// Content-Transfer-Encoding.
func AttachmentFromPart(header textproto.MIMEHeader, body []byte) (Attachment, error) {
	att := Attachment{
		ContentID: strings.TrimSpace(header.Get("Content-Id")),
	}

	if ct := header.Get("Content-Type"); ct != "" {
		mediaType, params, err := mime.ParseMediaType(ct)
		if err != nil {
			return Attachment{}, mandrillErrors.NewWithCause(ErrEncoding, err).WithDetail("content_type", ct)
		}
		att.MIMEType = mediaType
		att.Filename = params["name"]
	}
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			att.Filename = params["filename"]
		}
	}

	switch strings.ToLower(header.Get("Content-Transfer-Encoding")) {
	case "base64":
		decoded, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, newlineStripper(body)))
		if err != nil {
			return Attachment{}, mandrillErrors.NewWithCause(ErrEncoding, err).WithDetail("filename", att.Filename)
		}
		att.Content = decoded
	case "quoted-printable":
		decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(body)))
		if err != nil {
			return Attachment{}, mandrillErrors.NewWithCause(ErrEncoding, err).WithDetail("filename", att.Filename)
		}
		att.Content = decoded
	default:
		att.Content = body
	}
	if att.Content == nil {
		att.Content = []byte{}
	}

	return att, nil
}

func newlineStripper(b []byte) io.Reader {
	return strings.NewReader(strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, string(b)))
}

// LoadAttachment reads name from files and returns it as an attachment. The
// MIME type comes from the file source when it knows it, otherwise from the
// extension at encoding time.
func LoadAttachment(ctx context.Context, files fsx.FileReader, name string) (Attachment, error) {
	data, err := files.ReadFile(ctx, name)
	if err != nil {
		return Attachment{}, err
	}

	att := Attachment{Filename: path.Base(name), Content: data}
	if info, err := files.Stat(ctx, name); err == nil && info.ContentType != fallbackMIMEType {
		att.MIMEType = info.ContentType
	}
	return att, nil
}
