package shortener

import (
	"errors"

	"url-shortener/pkg/storage"
)

var (
	// ErrInvalidURL indicates an empty or malformed original URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidCode indicates a custom code outside [a-zA-Z0-9]{1,255}.
	ErrInvalidCode = errors.New("invalid short code")

	// ErrCodeSpaceExhausted indicates the generate-insert loop ran out of
	// attempts without finding a free code. With a healthy random source
	// this should never happen; it bounds worst-case latency.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique short code")
)

// IsNotFound reports whether err is a lookup miss (or inactive code).
func IsNotFound(err error) bool { return errors.Is(err, storage.ErrNotFound) }

// IsConflict reports whether err is a short-code uniqueness conflict.
func IsConflict(err error) bool { return errors.Is(err, storage.ErrCodeTaken) }

// IsInvalid reports whether err is a client input error.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrInvalidCode)
}
