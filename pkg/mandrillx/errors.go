package mandrillx

import (
	"errors"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
)

var mandrillErrors = errx.NewRegistry("MANDRILL")

var (
	ErrConfiguration      = mandrillErrors.Register("CONFIGURATION", errx.TypeInternal, 500, "Mandrill client is misconfigured")
	ErrUnsupportedFeature = mandrillErrors.Register("UNSUPPORTED_FEATURE", errx.TypeValidation, 400, "Message cannot be represented in a Mandrill payload")
	ErrInvalidTag         = mandrillErrors.Register("INVALID_TAG", errx.TypeValidation, 400, "Invalid Mandrill tag")
	ErrEncoding           = mandrillErrors.Register("ENCODING", errx.TypeValidation, 400, "Value cannot be encoded")
	ErrSerialization      = mandrillErrors.Register("SERIALIZATION", errx.TypeInternal, 500, "Payload cannot be serialized to JSON")
	ErrTransport          = mandrillErrors.Register("TRANSPORT", errx.TypeExternal, 502, "Mandrill API request failed")
	ErrRecipientsRefused  = mandrillErrors.Register("RECIPIENTS_REFUSED", errx.TypeBusiness, 422, "Mandrill refused all recipients")
)

// Detail keys carrying send context on errors returned by the client.
const (
	detailMessage  = "message"
	detailPayload  = "payload"
	detailResponse = "response"
)

// SendContext is the diagnostic context attached to a failed send. Any
// member may be nil when the failure happened before it existed.
type SendContext struct {
	Message  *Message
	Payload  *Payload
	Response *SendResponse
}

// ErrorContext extracts the send context from an error returned by Send or
// SendMessages.
func ErrorContext(err error) SendContext {
	var sc SendContext
	var e *errx.Error
	if !errors.As(err, &e) {
		return sc
	}
	if v, ok := e.Detail(detailMessage); ok {
		sc.Message, _ = v.(*Message)
	}
	if v, ok := e.Detail(detailPayload); ok {
		sc.Payload, _ = v.(*Payload)
	}
	if v, ok := e.Detail(detailResponse); ok {
		sc.Response, _ = v.(*SendResponse)
	}
	return sc
}

// withContext attaches whatever context is available to err when it is a
// registry error.
func withContext(err error, msg *Message, payload *Payload, resp *SendResponse) error {
	var e *errx.Error
	if !errors.As(err, &e) {
		return err
	}
	if msg != nil {
		e.WithDetail(detailMessage, msg)
	}
	if payload != nil {
		e.WithDetail(detailPayload, payload)
	}
	if resp != nil {
		e.WithDetail(detailResponse, resp)
	}
	return err
}

// IsConfiguration reports whether err is a configuration error, the one
// kind fail-silently never suppresses.
func IsConfiguration(err error) bool {
	return errx.IsCode(err, ErrConfiguration)
}
