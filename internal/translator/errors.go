package translator

import (
	"errors"
	"fmt"
)

var (
	ErrTranslationService = errors.New("translation service error")
	ErrEmptyResult        = errors.New("empty translation result")
	ErrMalformedResponse  = errors.New("malformed completion response")
)

// ServiceError is returned by Client.Invoke for every failed completion.
// It matches ErrTranslationService as well as the underlying cause.
type ServiceError struct {
	Backend string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("translation service %s: %v", e.Backend, e.Err)
}

func (e *ServiceError) Unwrap() []error {
	return []error{ErrTranslationService, e.Err}
}
