// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"os"

	"periph.io/x/sysfsgpio/mux"
)

// AsyncPoller exposes the value file of a pin to a caller owned readiness
// multiplexer.
//
// It runs no loop and interprets nothing: Register, Reregister and
// Deregister forward the descriptor to the Registry as is. Edges are
// reported as mux.Priority readiness. Expect one spurious event right after
// registration.
type AsyncPoller struct {
	pin    Pin
	path   string
	file   *os.File
	closed bool
}

// AsyncPoller opens the pin value file for use with a mux.Registry.
//
// It fails with ErrUnsupported on platforms without epoll.
func (p Pin) AsyncPoller() (*AsyncPoller, error) {
	path := p.attr("value")
	if !isLinux {
		return nil, &Error{Kind: KindUnsupported, Op: "open", Path: path, Err: mux.ErrUnsupported}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open", path, err)
	}
	return &AsyncPoller{pin: p, path: path, file: f}, nil
}

// Pin returns the pin the value file belongs to.
func (a *AsyncPoller) Pin() Pin {
	return a.pin
}

// Fd returns the value file descriptor.
func (a *AsyncPoller) Fd() int {
	return int(a.file.Fd())
}

// Register implements mux.Source.
func (a *AsyncPoller) Register(r mux.Registry, token mux.Token, interest mux.Interest, mode mux.Mode) error {
	return r.Register(a.Fd(), token, interest, mode)
}

// Reregister implements mux.Source.
func (a *AsyncPoller) Reregister(r mux.Registry, token mux.Token, interest mux.Interest, mode mux.Mode) error {
	return r.Reregister(a.Fd(), token, interest, mode)
}

// Deregister implements mux.Source.
func (a *AsyncPoller) Deregister(r mux.Registry) error {
	return r.Deregister(a.Fd())
}

// Close closes the value file. It must be deregistered first. Calling Close
// more than once is a no-op.
func (a *AsyncPoller) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.file.Close(); err != nil {
		return ioError("close", a.path, err)
	}
	return nil
}

var _ mux.Source = &AsyncPoller{}
