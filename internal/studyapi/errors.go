package studyapi

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid file")
	ErrRequestFailed = errors.New("request failed")
)

// RequestFailedError is returned when the backend answers with a non-2xx status.
type RequestFailedError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", e.Op, e.Status)
}

func (e *RequestFailedError) Is(target error) bool { return target == ErrRequestFailed }

func IsInvalidInput(err error) bool  { return errors.Is(err, ErrInvalidInput) }
func IsRequestFailed(err error) bool { return errors.Is(err, ErrRequestFailed) }
