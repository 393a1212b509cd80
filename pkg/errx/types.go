package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents misconfiguration and programming errors
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents input that cannot be represented or accepted
	TypeValidation Type = "VALIDATION"

	// TypeAuthorization represents authentication errors
	TypeAuthorization Type = "AUTHORIZATION"

	// TypeForbidden represents requests rejected by an access check
	TypeForbidden Type = "FORBIDDEN"

	// TypeNotFound represents resource not found errors
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents resource conflict errors
	TypeConflict Type = "CONFLICT"

	// TypeBusiness represents domain outcomes reported as errors
	TypeBusiness Type = "BUSINESS"

	// TypeExternal represents errors from external services
	TypeExternal Type = "EXTERNAL"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}
