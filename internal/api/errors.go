package api

import "errors"

// ErrInvalidURL is returned before any request is made when the server URL
// is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid URL")

// APIError is a response whose kind is not one the operation accepts.
type APIError struct {
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return e.Kind + ": " + e.Message
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
