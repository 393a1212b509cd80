package hookxpg

import "github.com/Abraxas-365/mandrillx/pkg/errx"

var hookxpgErrors = errx.NewRegistry("HOOKX_PG")

var (
	ErrSchema      = hookxpgErrors.Register("SCHEMA", errx.TypeInternal, 500, "Failed to create webhook events table")
	ErrSaveFailed  = hookxpgErrors.Register("SAVE_FAILED", errx.TypeExternal, 500, "Failed to store webhook event")
	ErrQueryFailed = hookxpgErrors.Register("QUERY_FAILED", errx.TypeExternal, 500, "Failed to query webhook events")
)
