package image

import "errors"

var (
	// ErrObjectNotFound is the normal "go generate it" signal, not a failure.
	ErrObjectNotFound = errors.New("object not found")

	ErrStorageWrite = errors.New("storage write failed")
	ErrStorageRead  = errors.New("storage read failed")
)
