package publication

import (
	"errors"
	"fmt"
)

// ErrNotAvailable indicates that a capability declined or has no implementation.
var ErrNotAvailable = errors.New("capability not available")

// ErrNoCover is returned by cover services that cannot produce a cover.
var ErrNoCover = errors.New("publication has no cover")

// ErrResourceNotFound indicates that a linked resource does not exist.
var ErrResourceNotFound = errors.New("resource not found")

// ErrNoImageProvider is returned when a cover must be scaled but no image provider is set.
var ErrNoImageProvider = errors.New("no image provider to scale the cover")

// ErrServicesFrozen is the panic value raised when a frozen services builder is mutated.
var ErrServicesFrozen = errors.New("publication services are frozen")

// FetchError reports a resource that could not be read.
type FetchError struct {
	Href string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Href, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError reports image bytes that are malformed or in an unsupported format.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
