package core

import "errors"

var (
	// ErrUsernameTaken is returned by the registry when the requested
	// username is already online.
	ErrUsernameTaken = errors.New("username taken")
	// ErrInvalidCommand marks input that matches a command verb but not
	// its shape.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrInvalidQuery marks a /query line without a numeric id.
	ErrInvalidQuery = errors.New("invalid query command")
)
