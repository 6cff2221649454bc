package dataset

import "errors"

var (
	// ErrIO is returned when the source file cannot be read
	ErrIO = errors.New("dataset unreadable")
	// ErrSchema is returned when an expected column is missing
	ErrSchema = errors.New("dataset schema mismatch")
	// ErrParse is returned when a value cannot be parsed into its column type
	ErrParse = errors.New("dataset value unparseable")
)
