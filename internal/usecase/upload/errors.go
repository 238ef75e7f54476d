package upload

import "errors"

var (
	ErrEmptyPayload   = errors.New("empty upload payload")
	ErrInvalidDataURI = errors.New("invalid data URI")
)
