package outbox

import "github.com/Abraxas-365/mandrillx/pkg/errx"

var outboxErrors = errx.NewRegistry("OUTBOX")

var (
	ErrEntryNotFound  = outboxErrors.Register("ENTRY_NOT_FOUND", errx.TypeNotFound, 404, "Outbox entry not found")
	ErrInvalidMessage = outboxErrors.Register("INVALID_MESSAGE", errx.TypeValidation, 400, "Invalid outbox message")
	ErrNotSent        = outboxErrors.Register("NOT_SENT", errx.TypeBusiness, 422, "Message was not sent")
	ErrAlreadyRunning = outboxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Outbox worker is already running")
)
