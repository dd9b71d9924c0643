package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable console errors
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("resource not found")
	ErrTemplateEnded   = errors.New("coupon template has ended")
	ErrDuplicateSubmit = errors.New("a previous submission is still in progress")
	ErrSessionExpired  = errors.New("session expired or invalid")
	ErrUploadTooLarge  = errors.New("uploaded file is too large")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// FieldErrors maps form field names to inline messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	return fmt.Sprintf("%d invalid field(s)", len(f))
}

// Add records the first message for a field.
func (f FieldErrors) Add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = message
	}
}

// OrNil returns nil when nothing was recorded.
func (f FieldErrors) OrNil() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// AsFieldErrors extracts field errors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
