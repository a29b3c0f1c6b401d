// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package mux

import "time"

// Poll is not available on this platform; New always fails.
type Poll struct{}

// New returns ErrUnsupported.
func New() (*Poll, error) {
	return nil, ErrUnsupported
}

// Fd returns -1.
func (p *Poll) Fd() int { return -1 }

// Register implements Registry.
func (p *Poll) Register(fd int, token Token, interest Interest, mode Mode) error {
	return ErrUnsupported
}

// Reregister implements Registry.
func (p *Poll) Reregister(fd int, token Token, interest Interest, mode Mode) error {
	return ErrUnsupported
}

// Deregister implements Registry.
func (p *Poll) Deregister(fd int) error {
	return ErrUnsupported
}

// Wait returns ErrUnsupported.
func (p *Poll) Wait(events []Event, timeout time.Duration) (int, error) {
	return 0, ErrUnsupported
}

// Close returns ErrUnsupported.
func (p *Poll) Close() error {
	return ErrUnsupported
}

// Notifier is not available on this platform.
type Notifier struct{}

// NewNotifier returns ErrUnsupported.
func NewNotifier(p *Poll, token Token) (*Notifier, error) {
	return nil, ErrUnsupported
}

// Notify returns ErrUnsupported.
func (n *Notifier) Notify() error { return ErrUnsupported }

// Drain does nothing.
func (n *Notifier) Drain() {}

// Close returns ErrUnsupported.
func (n *Notifier) Close() error { return ErrUnsupported }

var _ Registry = &Poll{}
