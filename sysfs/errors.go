// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"fmt"

	"periph.io/x/sysfsgpio/mux"
)

// Kind classifies an Error.
type Kind int

const (
	// KindIO is an OS error opening, reading or writing a file or the
	// readiness multiplexer. Err holds the underlying error.
	KindIO Kind = iota + 1
	// KindUnexpected is an attribute file holding content that doesn't parse.
	// Content holds the raw text.
	KindUnexpected
	// KindInvalidPath is a path that doesn't name a pin directory.
	KindInvalidPath
	// KindUnsupported is an operation not available on this platform.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindUnexpected:
		return "unexpected"
	case KindInvalidPath:
		return "invalid path"
	case KindUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrUnexpected matches errors of KindUnexpected with errors.Is.
	ErrUnexpected = errors.New("unexpected attribute content")
	// ErrInvalidPath matches errors of KindInvalidPath with errors.Is.
	ErrInvalidPath = errors.New("invalid pin path")
	// ErrUnsupported matches errors of KindUnsupported with errors.Is.
	ErrUnsupported = errors.New("operation not supported on target os")
	// ErrClosed is returned by operations on a closed poller or stream.
	ErrClosed = errors.New("use of closed poller")
)

// Error is the error type returned by this package.
type Error struct {
	Kind Kind
	// Op is the failed operation, e.g. "read value".
	Op string
	// Path is the file or directory involved, if any.
	Path string
	// Content is the offending raw content for KindUnexpected.
	Content string
	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	prefix := "sysfs-gpio: " + e.Op
	if e.Path != "" {
		prefix += " " + e.Path
	}
	switch e.Kind {
	case KindUnexpected:
		return fmt.Sprintf("%s: unexpected content %q", prefix, e.Content)
	case KindInvalidPath:
		if e.Err != nil {
			return fmt.Sprintf("%s: invalid path: %v", prefix, e.Err)
		}
		return prefix + ": invalid path"
	case KindUnsupported:
		return prefix + ": " + ErrUnsupported.Error()
	default:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes the package sentinels match their Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnexpected:
		return e.Kind == KindUnexpected
	case ErrInvalidPath:
		return e.Kind == KindInvalidPath
	case ErrUnsupported:
		return e.Kind == KindUnsupported
	}
	return false
}

func ioError(op, path string, err error) error {
	if errors.Is(err, mux.ErrUnsupported) {
		return &Error{Kind: KindUnsupported, Op: op, Path: path, Err: err}
	}
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

func unexpected(op, path, content string) error {
	return &Error{Kind: KindUnexpected, Op: op, Path: path, Content: content}
}
