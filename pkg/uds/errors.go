package uds

import "errors"

// Package-level sentinel errors for programmer-error conditions. These
// never reach the wire — wire-level failures are NRC values, not Go
// errors. Mirrors the teacher's root errors.go.
var (
	ErrIllegalArgument = errors.New("uds: illegal argument")
	ErrBufferTooSmall  = errors.New("uds: buffer capacity must be greater than 2 bytes")
)
