package hookx

import "github.com/Abraxas-365/mandrillx/pkg/errx"

var hookxErrors = errx.NewRegistry("HOOKX")

var (
	ErrConfiguration  = hookxErrors.Register("CONFIGURATION", errx.TypeInternal, 500, "Webhook endpoint is misconfigured")
	ErrForbidden      = hookxErrors.Register("FORBIDDEN", errx.TypeForbidden, 403, "Webhook request rejected")
	ErrInvalidPayload = hookxErrors.Register("INVALID_PAYLOAD", errx.TypeValidation, 400, "Invalid mandrill_events payload")
	ErrCallbackFailed = hookxErrors.Register("CALLBACK_FAILED", errx.TypeInternal, 500, "Webhook event callback failed")
)
