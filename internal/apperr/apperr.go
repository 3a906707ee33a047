// Package apperr defines the sentinel errors shared across services.
// Services wrap these with fmt.Errorf("%w: ...") so that the handler
// layer can map them to HTTP statuses with errors.Is while keeping a
// human-readable message.
package apperr

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("invalid input")
	// ErrConflict marks a uniqueness violation (email or username taken).
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated marks a missing, invalid or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden marks an authenticated caller acting on a resource they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a lookup for a resource that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedMedia marks an upload whose extension or media type is not allowed.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrPayloadTooLarge marks an upload over the size cap.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrStorage marks a filesystem failure while persisting or removing a file.
	ErrStorage = errors.New("storage failure")
)

var sentinels = []error{
	ErrValidation, ErrConflict, ErrUnauthenticated, ErrForbidden,
	ErrNotFound, ErrUnsupportedMedia, ErrPayloadTooLarge, ErrStorage,
}

// Message returns the human-readable part of an error produced with
// fmt.Errorf("%w: message", sentinel), or fallback if err does not
// follow that shape.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	s := err.Error()
	for _, sentinel := range sentinels {
		if rest, ok := strings.CutPrefix(s, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return fallback
}
