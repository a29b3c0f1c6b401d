// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mux is a readiness multiplexer for file descriptors.
//
// Poll wraps the operating system primitive (epoll on Linux). Sources that
// own a file descriptor implement Source so they can be registered with any
// Registry, including a Poll driven by the caller's own loop.
//
// Reactor runs a Poll on a background goroutine and hands out Registrations
// that report readiness to a Waker. This is what the asynchronous streams in
// periph.io/x/sysfsgpio/sysfs are built on.
package mux

import (
	"errors"
	"strings"
	"time"
)

// Infinite makes Wait block until at least one event is ready.
const Infinite time.Duration = -1

var (
	// ErrUnsupported is returned on platforms without an edge triggered
	// readiness multiplexer.
	ErrUnsupported = errors.New("mux: readiness multiplexer not supported on this platform")
	// ErrClosed is returned when using a closed Poll, Reactor or Registration.
	ErrClosed = errors.New("mux: use of closed multiplexer")
)

// Token identifies a registration in the events returned by Wait.
type Token uint32

// Interest is the set of readiness kinds a registration cares about.
type Interest uint8

const (
	// Readable is regular read readiness.
	Readable Interest = 1 << iota
	// Writable is write readiness.
	Writable
	// Priority is exceptional or urgent data. The GPIO sysfs value file
	// reports edges this way.
	Priority
)

func (i Interest) String() string {
	if i == 0 {
		return "none"
	}
	var out []string
	if i&Readable != 0 {
		out = append(out, "readable")
	}
	if i&Writable != 0 {
		out = append(out, "writable")
	}
	if i&Priority != 0 {
		out = append(out, "priority")
	}
	return strings.Join(out, "|")
}

// Mode selects how readiness is reported.
type Mode uint8

const (
	// Level reports a descriptor as long as it is ready.
	Level Mode = iota
	// Edge reports a descriptor once per readiness change.
	Edge
	// Oneshot reports a descriptor once, then disables it until Reregister.
	Oneshot
)

func (m Mode) String() string {
	switch m {
	case Level:
		return "level"
	case Edge:
		return "edge"
	case Oneshot:
		return "oneshot"
	default:
		return "Mode(?)"
	}
}

// Event is one readiness notification.
type Event struct {
	Token Token
	Ready Interest
	// Error is set when the descriptor reported an error condition.
	Error bool
	// Hangup is set when the peer closed or the descriptor went away.
	Hangup bool
}

// Registry is implemented by multiplexers that file descriptors can be
// registered with.
type Registry interface {
	Register(fd int, token Token, interest Interest, mode Mode) error
	Reregister(fd int, token Token, interest Interest, mode Mode) error
	Deregister(fd int) error
}

// Source is a resource owning a file descriptor that can be registered with
// a Registry.
type Source interface {
	Register(r Registry, token Token, interest Interest, mode Mode) error
	Reregister(r Registry, token Token, interest Interest, mode Mode) error
	Deregister(r Registry) error
}

// FdSource adapts a raw file descriptor to Source. The descriptor is not
// owned.
type FdSource int

// Register implements Source.
func (f FdSource) Register(r Registry, token Token, interest Interest, mode Mode) error {
	return r.Register(int(f), token, interest, mode)
}

// Reregister implements Source.
func (f FdSource) Reregister(r Registry, token Token, interest Interest, mode Mode) error {
	return r.Reregister(int(f), token, interest, mode)
}

// Deregister implements Source.
func (f FdSource) Deregister(r Registry) error {
	return r.Deregister(int(f))
}

// millis converts a timeout to the millisecond value expected by the OS.
//
// Negative means infinite. A positive duration below one millisecond is
// rounded up so that it doesn't degrade into a non-blocking check.
func millis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

var _ Source = FdSource(0)
