// Package errs defines the closed error taxonomy shared by every request
// handler. Each error carries a kind (which maps to an HTTP status) and a
// human-readable cause chain for logging and page rendering.
package errs

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Kind identifies one failure cause. The set is closed: handlers switch on
// kinds and the status mapping below must stay exhaustive.
type Kind int

const (
	// KindIO covers any OS-level I/O failure.
	KindIO Kind = iota
	// KindMultipart marks a malformed or prematurely terminated multipart body.
	KindMultipart
	// KindDuplicateFile is returned when an upload destination exists and
	// overwriting is disabled.
	KindDuplicateFile
	// KindInvalidPath marks a path that failed validation (bad component,
	// unexpected entry type). Treated as internal misuse, not a client error.
	KindInvalidPath
	// KindInvalidCredentials means the supplied username/password matched no
	// configured account.
	KindInvalidCredentials
	// KindParse covers parse failures of client-supplied values (auth header,
	// multipart filename).
	KindParse
	// KindInsufficientPermissions means the process cannot write to the target.
	KindInsufficientPermissions
	// KindInvalidRequest covers missing/invalid query parameters and
	// sandbox-escape attempts.
	KindInvalidRequest
	// KindConflictMkdir means the directory to create already exists.
	KindConflictMkdir
	// KindRouteNotFound marks a request for an unknown route.
	KindRouteNotFound
	// KindArchive wraps the cause of a failed archive download.
	KindArchive
	// KindAuthentication wraps the cause of a failed HTTP authentication.
	KindAuthentication
)

// Error is a contextual error: a kind, a message, and optionally a wrapped
// cause. Composite kinds (KindArchive, KindAuthentication) delegate their
// status to the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + "\ncaused by: " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Status returns the HTTP status representing this error. Composite kinds
// resolve recursively through their cause.
func (e *Error) Status() int {
	switch e.Kind {
	case KindArchive, KindAuthentication:
		if inner, ok := e.Cause.(*Error); ok {
			return inner.Status()
		}
		return http.StatusInternalServerError
	case KindRouteNotFound:
		return http.StatusNotFound
	case KindInsufficientPermissions:
		return http.StatusForbidden
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindInvalidRequest, KindParse:
		return http.StatusBadRequest
	case KindConflictMkdir:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// StatusFor resolves the status for an arbitrary error value, defaulting to
// 500 for errors outside the taxonomy.
func StatusFor(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Status()
	}
	return http.StatusInternalServerError
}

// IO wraps an OS error with a description of the failed operation.
func IO(msg string, cause error) *Error {
	return &Error{Kind: KindIO, Message: msg, Cause: cause}
}

// Multipart marks a failure while reading a multipart request body.
func Multipart(cause error) *Error {
	return &Error{Kind: KindMultipart, Message: "failed to process multipart request", Cause: cause}
}

// DuplicateFile is the fixed no-overwrite failure.
func DuplicateFile() *Error {
	return &Error{Kind: KindDuplicateFile, Message: "file already exists, and the overwrite option has not been set"}
}

// InvalidPath marks an invalid path component or entry type.
func InvalidPath(msg string) *Error {
	return &Error{Kind: KindInvalidPath, Message: "invalid path\ncaused by: " + msg}
}

// InvalidCredentials is the fixed credential-mismatch failure.
func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "invalid credentials for HTTP authentication"}
}

// Parse marks a failure to parse a client-supplied value.
func Parse(what, detail string) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf("failed to parse %s\ncaused by: %s", what, detail)}
}

// InsufficientPermissions marks a target the process cannot write to.
func InsufficientPermissions(path string) *Error {
	return &Error{Kind: KindInsufficientPermissions, Message: "insufficient permissions to create entry in " + path}
}

// InvalidRequest marks a request-shape problem attributable to the client.
func InvalidRequest(msg string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: "invalid HTTP request\ncaused by: " + msg}
}

// ConflictMkdir is the fixed existing-directory failure.
func ConflictMkdir() *Error {
	return &Error{Kind: KindConflictMkdir, Message: "directory already exists"}
}

// RouteNotFound marks a request for an unknown route.
func RouteNotFound(route string) *Error {
	return &Error{Kind: KindRouteNotFound, Message: fmt.Sprintf("route %s could not be found", route)}
}

// Archive wraps the cause of a failed archive creation. what names the
// archive flavor ("zip archive", "tarball").
func Archive(what string, cause error) *Error {
	return &Error{Kind: KindArchive, Message: "an error occurred while creating the " + what, Cause: cause}
}

// Authentication wraps the cause of a failed HTTP authentication.
func Authentication(cause error) *Error {
	return &Error{Kind: KindAuthentication, Message: "an error occurred during HTTP authentication", Cause: cause}
}

// LogChain logs an error one line per cause, oldest cause last. This is the
// single logging choke point: the HTTP boundary calls it exactly once per
// surfaced error.
func LogChain(log *slog.Logger, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		log.Error(line)
	}
}
