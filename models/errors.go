package models

import (
	"errors"
	"fmt"
)

var (
	ErrClassificationMiss = errors.New("unsupported platform or invalid reference")
	ErrCollectionEmpty    = errors.New("collection contains no usable tracks")
	ErrLocatorMiss        = errors.New("no media found for query")
)

// ResolutionError is returned when a single reference cannot be turned into a Track.
type ResolutionError struct {
	Reference string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %s: %v", e.Reference, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// FetchError is returned when the fetch engine fails for a media URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("download of %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// TagError is returned by the tagger. It never fails a download.
type TagError struct {
	Path string
	Err  error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("failed to tag %s: %v", e.Path, e.Err)
}

func (e *TagError) Unwrap() error {
	return e.Err
}
