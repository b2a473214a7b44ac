package download

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrDuplicateTask  = errors.New("duplicate_task")
	ErrInvalidState   = errors.New("invalid_state")
)
