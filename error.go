package fetch

import (
	"fmt"

	"github.com/pkg/errors"
)

// FetchError types, kept compatible with the javascript fetch polyfills.
const (
	MaxSizeError     = "max-size"
	BodyTimeoutError = "body-timeout"
	SystemError      = "system"
	BodyUsedError    = "body-used"
)

var (
	ErrBodyUsed        = errors.New("body used already")
	ErrCloneUsed       = errors.New("cannot clone body after it is used")
	ErrUnsupportedBody = errors.New("unsupported body type")
)

// FetchError is returned by body consumers when reading fails.
type FetchError struct {
	Message string
	Type    string
	Err     error
}

func newFetchError(message, errType string, cause error) *FetchError {
	return &FetchError{Message: message, Type: errType, Err: cause}
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Cause lets github.com/pkg/errors.Cause see through a FetchError.
func (e *FetchError) Cause() error {
	return e.Err
}

// HeaderError reports an invalid header name or value.
type HeaderError struct {
	Name  string
	Value string
	Field string // "name" or "value"
}

func (e *HeaderError) Error() string {
	if e.Field == "value" {
		return fmt.Sprintf("%q is not a legal HTTP header value", e.Value)
	}
	return fmt.Sprintf("%q is not a legal HTTP header name", e.Name)
}
