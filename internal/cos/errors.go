// Package cos provides the low-level types shared by every fabric
// package: the error-kind taxonomy (spec §7) and debug-name/instance-ID
// generation.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrKind is the taxonomy of error kinds a caller can switch on,
// independent of the concrete error type (spec §7, §6 "Error kinds").
type ErrKind int

const (
	_ ErrKind = iota
	InvalidArgument
	WouldBlock
	Timeout
	NoMemory
	Overflow
	// FilterMismatch is never propagated as an error to callers: it is
	// the internal acquire() result that tells the fabric to skip a
	// sink without counting or releasing (spec §4.4).
	FilterMismatch
)

func (k ErrKind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case WouldBlock:
		return "would block"
	case Timeout:
		return "timeout"
	case NoMemory:
		return "no memory"
	case Overflow:
		return "overflow"
	case FilterMismatch:
		return "filter mismatch"
	default:
		return "unknown"
	}
}

// KindError wraps an ErrKind with a human-readable message. NewErr
// returns it wrapped by github.com/pkg/errors.WithStack, so every such
// error carries a stack trace, in every build.
type KindError struct {
	kind ErrKind
	msg  string
}

func (e *KindError) Error() string { return e.msg }
func (e *KindError) Kind() ErrKind { return e.kind }

func NewErr(kind ErrKind, format string, a ...any) error {
	return errors.WithStack(&KindError{kind: kind, msg: fmt.Sprintf("%s: %s", kind, fmt.Sprintf(format, a...))})
}

// Kind extracts the ErrKind carried by an error produced by NewErr, or
// InvalidArgument if err does not carry one (defensive default for the
// "lifecycle violation" bucket in spec §7).
func Kind(err error) ErrKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return InvalidArgument
}

// IsFilterSkip reports whether acquire() declined delivery as a
// non-fatal filter skip (spec §3 PayloadOps.acquire, §4.4).
func IsFilterSkip(err error) bool {
	return err != nil && Kind(err) == FilterMismatch
}

var (
	ErrNilPayload = NewErr(InvalidArgument, "nil payload")
	ErrNilSource  = NewErr(InvalidArgument, "nil source")
	ErrNoOpsFanout = NewErr(InvalidArgument, "source has no payload-ops and more than one connection")
	ErrSizeMismatch = NewErr(InvalidArgument, "request/response size mismatch")
)
