package mandrillx_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/textproto"
	"testing"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func TestEncodeAttachment_RoundTrip(t *testing.T) {
	content := []byte{0x00, 0xff, 0x10, 'P', 'D', 'F', 0x80}

	encoded, embedded, err := mandrillx.EncodeAttachment(mandrillx.Attachment{
		Filename: "report.pdf",
		Content:  content,
	}, "")
	require.NoError(t, err)
	assert.False(t, embedded)
	assert.Equal(t, "application/pdf", encoded.Type)
	assert.Equal(t, "report.pdf", encoded.Name)

	decoded, err := base64.StdEncoding.DecodeString(encoded.Content)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(content, decoded))
}

func TestEncodeAttachment_MIMEType(t *testing.T) {
	tests := []struct {
		name     string
		att      mandrillx.Attachment
		wantType string
		wantName string
	}{
		{"declared", mandrillx.Attachment{Filename: "notes", Content: []byte("x"), MIMEType: "text/plain"}, "text/plain", "notes"},
		{"declared with params", mandrillx.Attachment{Filename: "a.csv", Content: []byte("x"), MIMEType: "text/csv; charset=utf-8"}, "text/csv", "a.csv"},
		{"inferred from extension", mandrillx.Attachment{Filename: "test.png", Content: pngBytes}, "image/png", "test.png"},
		{"pdf without name", mandrillx.Attachment{Content: []byte("%PDF"), MIMEType: "application/pdf"}, "application/pdf", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, _, err := mandrillx.EncodeAttachment(tt.att, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, encoded.Type)
			assert.Equal(t, tt.wantName, encoded.Name)
		})
	}
}

func TestEncodeAttachment_RejectsUndeliverableTypes(t *testing.T) {
	for _, att := range []mandrillx.Attachment{
		{Filename: "blob.bin", Content: []byte{1}, MIMEType: "application/octet-stream"},
		{Filename: "unknown.zzqq", Content: []byte{1}},
		{Filename: "deck.ppt", Content: []byte{1}, MIMEType: "application/vnd.ms-powerpoint"},
	} {
		_, _, err := mandrillx.EncodeAttachment(att, "")
		assert.True(t, errx.IsCode(err, mandrillx.ErrUnsupportedFeature), att.Filename)
	}
}

func TestEncodeAttachment_InlineImage(t *testing.T) {
	encoded, embedded, err := mandrillx.EncodeAttachment(mandrillx.Attachment{
		Filename:  "logo.png",
		Content:   pngBytes,
		ContentID: "<logo@example.com>",
	}, "")
	require.NoError(t, err)
	assert.True(t, embedded)
	assert.Equal(t, "<logo@example.com>", encoded.Name)

	// A Content-ID on a non-image does not make it inline.
	_, embedded, err = mandrillx.EncodeAttachment(mandrillx.Attachment{
		Filename:  "doc.pdf",
		Content:   []byte("%PDF"),
		ContentID: "<doc@example.com>",
	}, "")
	require.NoError(t, err)
	assert.False(t, embedded)
}

func TestEncodeAttachment_TextUsesCharset(t *testing.T) {
	encoded, _, err := mandrillx.EncodeAttachment(mandrillx.Attachment{
		Filename: "note.txt",
		Text:     "café",
		MIMEType: "text/plain",
	}, "iso-8859-1")
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(encoded.Content)
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9}, decoded)
}

func TestAttachmentFromPart(t *testing.T) {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", `image/png; name="pixel.png"`)
	header.Set("Content-Disposition", `inline; filename="inline.png"`)
	header.Set("Content-Transfer-Encoding", "base64")
	header.Set("Content-ID", "<pixel>")

	body := base64.StdEncoding.EncodeToString(pngBytes)
	att, err := mandrillx.AttachmentFromPart(header, []byte(body[:8]+"\r\n"+body[8:]))
	require.NoError(t, err)

	assert.Equal(t, "inline.png", att.Filename)
	assert.Equal(t, "image/png", att.MIMEType)
	assert.Equal(t, "<pixel>", att.ContentID)
	assert.Equal(t, pngBytes, att.Content)
}

func TestLoadAttachment(t *testing.T) {
	ctx := context.Background()
	files, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, files.WriteFile(ctx, "reports/q3.pdf", []byte("%PDF-1.4")))

	att, err := mandrillx.LoadAttachment(ctx, files, "reports/q3.pdf")
	require.NoError(t, err)
	assert.Equal(t, "q3.pdf", att.Filename)

	encoded, _, err := mandrillx.EncodeAttachment(att, "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", encoded.Type)
}
