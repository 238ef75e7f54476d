package thumbnail

import "errors"

var (
	ErrInvalidSource  = errors.New("invalid thumbnail source")
	ErrHostNotAllowed = errors.New("source host not allowed")
)
