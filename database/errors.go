package database

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidID    = errors.New("invalid document id")
	ErrDuplicateKey = errors.New("document already exists")
)
