package papers

import "errors"

var (
	ErrNotFound        = errors.New("job not found")
	ErrInvalidState    = errors.New("job is not in a state that allows this operation")
	ErrAlreadyFinal    = errors.New("job already reached a terminal state")
	ErrUnsupportedType = errors.New("only PDF files are supported")
)

const (
	ErrorCodeNotFound        = "not_found"
	ErrorCodeInvalidState    = "invalid_state"
	ErrorCodeUnsupportedType = "unsupported_media_type"
	ErrorCodeValidation      = "validation_error"
	ErrorCodeInternal        = "internal_error"
)
