package mandrillx

import (
	"mime"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const defaultCharset = "utf-8"

// ParseAddress splits "Display Name <addr@example.com>" or a bare address
// into its display name and email. The name is empty when absent.
func ParseAddress(raw string) (name, email string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return addr.Name, addr.Address
	}

	// Lenient fallback for input net/mail refuses, e.g. unquoted commas
	// in the display name or a missing closing bracket.
	open := strings.LastIndex(raw, "<")
	if open < 0 {
		return "", raw
	}
	name = strings.Trim(strings.TrimSpace(raw[:open]), `"`)
	email = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw[open+1:]), ">"))
	return name, email
}

// SanitizeAddress returns a header-safe rendering of raw. A non-ASCII display
// name is RFC 2047 encoded in charset and a non-ASCII domain is converted to
// its IDNA form. Addresses that cannot be represented fail with ErrEncoding.
func SanitizeAddress(raw, charset string) (string, error) {
	name, email := ParseAddress(raw)
	email, err := sanitizeEmail(email)
	if err != nil {
		return "", err
	}
	if name == "" {
		return email, nil
	}
	if isASCII(name) {
		return (&mail.Address{Name: name, Address: email}).String(), nil
	}

	enc, label, err := lookupCharset(charset)
	if err != nil {
		return "", err
	}
	encoded, err := enc.NewEncoder().String(name)
	if err != nil {
		return "", mandrillErrors.NewWithCause(ErrEncoding, err).
			WithDetail("address", raw).
			WithDetail("charset", label)
	}
	return mime.QEncoding.Encode(label, encoded) + " <" + email + ">", nil
}

// sanitizeEmail validates the addr-spec and converts an internationalized
// domain to ASCII. The local part must already be ASCII.
func sanitizeEmail(email string) (string, error) {
	if isASCII(email) {
		return email, nil
	}
	at := strings.LastIndex(email, "@")
	if at < 0 || !isASCII(email[:at]) {
		return "", mandrillErrors.NewWithMessage(ErrEncoding, "Non-ASCII local part cannot be encoded").
			WithDetail("address", email)
	}
	domain, err := idna.Lookup.ToASCII(email[at+1:])
	if err != nil {
		return "", mandrillErrors.NewWithCause(ErrEncoding, err).WithDetail("address", email)
	}
	return email[:at+1] + domain, nil
}

// lookupCharset resolves a charset label, defaulting to UTF-8.
func lookupCharset(charset string) (encoding.Encoding, string, error) {
	if charset == "" {
		charset = defaultCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, "", mandrillErrors.NewWithCause(ErrEncoding, err).WithDetail("charset", charset)
	}
	label, err := htmlindex.Name(enc)
	if err != nil {
		label = charset
	}
	return enc, label, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
