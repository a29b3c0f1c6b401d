// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"time"

	"periph.io/x/sysfsgpio/mux"
)

// Infinite makes Poll wait until an edge is detected.
const Infinite = mux.Infinite

// Poller blocks the calling goroutine until the pin reports an edge.
//
// The edge attribute must be set to something other than NoInterrupt
// beforehand. Poll may be called from several goroutines, for example a
// non-blocking Poll(0) flush while another goroutine waits; Close must not
// race with Poll.
type Poller struct {
	pin  Pin
	src  *edgeSource
	read func() (uint8, error)
}

// Poller opens the pin value file and a dedicated readiness multiplexer.
//
// It fails with ErrUnsupported on platforms without epoll. Close must be
// called to release the resources.
func (p Pin) Poller() (*Poller, error) {
	src, err := openEdgeSource(p.attr("value"))
	if err != nil {
		return nil, err
	}
	return &Poller{pin: p, src: src, read: p.Value}, nil
}

// Pin returns the polled pin.
func (p *Poller) Pin() Pin {
	return p.pin
}

// Fd returns the value file descriptor.
func (p *Poller) Fd() int {
	return p.src.fd()
}

// Poll waits up to timeout for an edge.
//
// Stale content of the value file is discarded before waiting. When an edge
// is detected the value is read again and returned with ok set. On timeout
// ok is false and err is nil. Infinite waits forever; 0 doesn't block.
func (p *Poller) Poll(timeout time.Duration) (value uint8, ok bool, err error) {
	if p.src.released {
		return 0, false, ioError("poll", p.src.path, ErrClosed)
	}
	if err = p.src.drain(); err != nil {
		return 0, false, err
	}
	n, err := p.src.wait(timeout)
	if err != nil || n == 0 {
		return 0, false, err
	}
	if value, err = p.read(); err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// Close releases the value file and the multiplexer. Calling Close more
// than once is a no-op.
func (p *Poller) Close() error {
	return p.src.release()
}
