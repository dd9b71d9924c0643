package couponapi

import (
	"errors"
	"fmt"
)

// TransportError is returned for any non-2xx backend response.
type TransportError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend returned %s", e.Op, e.Status)
}

// APIError is a well-formed envelope whose code is not the success code.
type APIError struct {
	Op   string
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: backend code %s: %s", e.Op, e.Code, e.Info)
}

// IsTransport reports whether err carries a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsAPIError extracts the application error, if any.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
