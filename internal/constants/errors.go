package constants

import "errors"

// Configuration errors.
var (
	ErrNoEndpointConfigured = errors.New("no endpoint configured, use 'hal config set endpoint <url>' to set one")
	ErrInvalidOutputFormat  = errors.New("invalid output format")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
)

// Argument errors.
var (
	ErrInvalidQueryParam = errors.New("invalid query parameter, expected key=value")
	ErrInvalidSliceExpr  = errors.New("invalid slice expression, expected start:stop[:step]")
	ErrBodyConflict      = errors.New("--body and --body-file are mutually exclusive")
	ErrIndexAndSlice     = errors.New("--index and --slice are mutually exclusive")
)
