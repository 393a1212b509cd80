package fsx

import "github.com/Abraxas-365/mandrillx/pkg/errx"

var fsxErrors = errx.NewRegistry("FSX")

var (
	ErrNotFound    = fsxErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "File not found")
	ErrInvalidPath = fsxErrors.Register("INVALID_PATH", errx.TypeValidation, 400, "Path escapes the storage root")
	ErrRead        = fsxErrors.Register("READ", errx.TypeExternal, 502, "Failed to read file")
	ErrWrite       = fsxErrors.Register("WRITE", errx.TypeExternal, 502, "Failed to write file")
)

// NotFound reports a missing path.
func NotFound(path string) *errx.Error {
	return fsxErrors.New(ErrNotFound).WithDetail("path", path)
}

// InvalidPath reports a path outside the storage root.
func InvalidPath(path string) *errx.Error {
	return fsxErrors.New(ErrInvalidPath).WithDetail("path", path)
}

// ReadFailed wraps a backend read error.
func ReadFailed(path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrRead, cause).WithDetail("path", path)
}

// WriteFailed wraps a backend write error.
func WriteFailed(path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrWrite, cause).WithDetail("path", path)
}
