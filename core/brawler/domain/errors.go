package domain

import "errors"

var (
	ErrDuplicateBrawler = errors.New("brawler with the requested handle already exists")
	ErrInvalidData      = errors.New("invalid data provided for brawler operations")
	ErrUnavailable      = errors.New("brawler store unavailable")
	ErrUnhandled        = errors.New("unexpected error")
	ErrBrawlerNotFound  = errors.New("brawler not found")
)

// UseCaseError wraps a failure of an application operation with the name of
// that operation. It unwraps to the underlying cause.
type UseCaseError struct {
	Op  string
	Err error
}

func (e *UseCaseError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UseCaseError) Unwrap() error {
	return e.Err
}
