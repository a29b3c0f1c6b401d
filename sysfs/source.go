// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"fmt"
	"io"
	"os"
	"time"

	"periph.io/x/sysfsgpio/mux"
)

// valueToken is the token the value file is registered under.
const valueToken mux.Token = 0

// multiplexer is the part of *mux.Poll an edge source needs.
type multiplexer interface {
	Register(fd int, token mux.Token, interest mux.Interest, mode mux.Mode) error
	Wait(events []mux.Event, timeout time.Duration) (int, error)
	Close() error
}

// newMultiplexer is replaced in tests.
var newMultiplexer = func() (multiplexer, error) {
	p, err := mux.New()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// edgeSource owns the value file of one pin and a multiplexer the file is
// registered with for edge triggered priority readiness.
type edgeSource struct {
	path     string
	file     *os.File
	mp       multiplexer
	released bool
}

// openEdgeSource opens the value file, then creates the multiplexer. When the
// registration fails the multiplexer is released before returning.
func openEdgeSource(path string) (*edgeSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open", path, err)
	}
	mp, err := newMultiplexer()
	if err != nil {
		_ = f.Close()
		return nil, ioError("create poller", path, err)
	}
	if err := mp.Register(int(f.Fd()), valueToken, mux.Priority, mux.Edge); err != nil {
		mustRelease(mp)
		_ = f.Close()
		return nil, ioError("register", path, err)
	}
	return &edgeSource{path: path, file: f, mp: mp}, nil
}

// fd returns the value file descriptor.
func (s *edgeSource) fd() int {
	return int(s.file.Fd())
}

// drain discards what the value file currently holds. Until the file is read
// again after an edge, the kernel keeps reporting it as ready.
//
// drain and wait use per-call buffers and may run concurrently.
func (s *edgeSource) drain() error {
	var buf [16]byte
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return ioError("seek", s.path, err)
	}
	for {
		n, err := s.file.Read(buf[:])
		if err == io.EOF || (err == nil && n == 0) {
			return nil
		}
		if err != nil {
			return ioError("drain", s.path, err)
		}
	}
}

// wait blocks up to timeout and returns the number of value file events.
func (s *edgeSource) wait(timeout time.Duration) (int, error) {
	var events [1]mux.Event
	n, err := s.mp.Wait(events[:], timeout)
	if err != nil {
		return 0, ioError("wait", s.path, err)
	}
	count := 0
	for _, ev := range events[:n] {
		if ev.Token == valueToken {
			count++
		}
	}
	return count, nil
}

// release frees the multiplexer and the file. Only the first call has an
// effect.
func (s *edgeSource) release() error {
	if s.released {
		return nil
	}
	s.released = true
	mustRelease(s.mp)
	if err := s.file.Close(); err != nil {
		return ioError("close", s.path, err)
	}
	return nil
}

// mustRelease closes the multiplexer and panics if it can't.
func mustRelease(mp io.Closer) {
	if err := mp.Close(); err != nil {
		panic(fmt.Sprintf("sysfs-gpio: failed to release readiness multiplexer: %v", err))
	}
}
