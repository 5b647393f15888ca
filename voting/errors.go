package voting

import "errors"

var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrChoiceNotFound = errors.New("choice not found")
	ErrDuplicateTitle = errors.New("choice title already in use")
	ErrPollExpired    = errors.New("poll has expired")
)
