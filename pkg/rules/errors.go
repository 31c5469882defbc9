package rules

import "errors"

var (
	// ErrNilCheck is returned when a remote check function is nil.
	ErrNilCheck = errors.New("rules: check function is nil")

	// ErrInvalidPattern is returned when a pattern does not compile.
	ErrInvalidPattern = errors.New("rules: invalid pattern")

	// ErrInvalidCapacity is returned for a non-positive cache capacity.
	ErrInvalidCapacity = errors.New("rules: cache capacity must be positive")

	// ErrInvalidSchema is returned when a schema cannot be decoded or declares invalid rules.
	ErrInvalidSchema = errors.New("rules: invalid schema")

	// ErrUnknownField is returned for a field the schema does not declare.
	ErrUnknownField = errors.New("rules: unknown field")
)
