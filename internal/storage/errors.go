package storage

import "errors"

var (
	// ErrDuplicateKey is returned by InsertBulk when a bar (code, datetime, type)
	// or a factor (code, date) is already stored. The whole batch is rejected.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for records missing their key fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchemaMissing is returned when a backing table does not exist.
	ErrSchemaMissing = errors.New("storage schema missing (run migrations)")
)
