package block

import (
	"errors"
	"fmt"
)

// FormatError is returned when a file is too short or structurally
// inconsistent to be decoded.
type FormatError struct {
	msg string
}

func newFormatError(format string, args ...any) *FormatError {
	return &FormatError{msg: fmt.Sprintf(format, args...)}
}

func (e *FormatError) Error() string {
	return "block: " + e.msg
}

// IsFormatError reports whether any error in err's chain is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// NewFormatError returns a FormatError with the given message.
func NewFormatError(msg string) *FormatError {
	return &FormatError{msg: msg}
}
