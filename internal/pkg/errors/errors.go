package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrValidation        = errors.New("validation failed")
	ErrFileRead          = errors.New("file read failed")
	ErrRemoteRejection   = errors.New("remote rejected request")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNetwork           = errors.New("network error")
	ErrFatal             = errors.New("import aborted")
	ErrRunInProgress     = errors.New("import already running")
)

// RemoteError is returned when the bookmark API answers with a non-2xx status.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemoteRejection
}

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
