package notifx

import "github.com/Abraxas-365/mandrillx/pkg/errx"

var notifxErrors = errx.NewRegistry("NOTIFX")

var (
	ErrSendFailed     = notifxErrors.Register("SEND_FAILED", errx.TypeExternal, 500, "Failed to send email")
	ErrInvalidMessage = notifxErrors.Register("INVALID_MESSAGE", errx.TypeValidation, 400, "Invalid email message")
	ErrNoProvider     = notifxErrors.Register("NO_PROVIDER", errx.TypeInternal, 500, "No email provider configured")
)

// NewSendFailed is used by providers to report an email that was not delivered.
func NewSendFailed(cause error) *errx.Error {
	if cause == nil {
		return notifxErrors.New(ErrSendFailed)
	}
	return notifxErrors.NewWithCause(ErrSendFailed, cause)
}
