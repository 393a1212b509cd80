package notifxses

import "github.com/Abraxas-365/mandrillx/pkg/errx"

var sesErrors = errx.NewRegistry("NOTIFX_SES")

var (
	ErrSendFailed  = sesErrors.Register("SEND_FAILED", errx.TypeExternal, 500, "SES send email failed")
	ErrUnsupported = sesErrors.Register("UNSUPPORTED", errx.TypeValidation, 400, "Option not supported by SES SendEmail")
)
