// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"periph.io/x/sysfsgpio/mux"
)

// Readiness is a non-blocking readiness check, as implemented by
// *mux.Registration.
type Readiness interface {
	// PollReady reports whether the source became ready since the last
	// ClearReady. When it didn't, w is woken once it does.
	PollReady(w mux.Waker) (bool, error)
	// ClearReady re-arms interest: the readiness is consumed and w is woken
	// on the next event.
	ClearReady(w mux.Waker) error
}

// EdgeStream is an endless sequence of edges detected on a pin.
//
// The readiness reported right after registration doesn't correspond to an
// edge and is discarded. Every later readiness is reported once. The stream
// only ends with Close.
type EdgeStream struct {
	path    string
	ready   Readiness
	release func() error

	mu     sync.Mutex
	primed bool // the spurious first readiness was discarded
	closed bool
}

// EdgeStream registers the pin value file with r and returns the stream of
// its edges.
//
// When r is nil the stream runs a Reactor of its own, closed along with the
// stream. The edge attribute must be set to something other than
// NoInterrupt.
func (p Pin) EdgeStream(r *mux.Reactor) (*EdgeStream, error) {
	own := r == nil
	if own {
		var err error
		if r, err = mux.NewReactor(); err != nil {
			return nil, ioError("create reactor", p.attr("value"), err)
		}
	}
	a, err := p.AsyncPoller()
	if err != nil {
		if own {
			mustRelease(r)
		}
		return nil, err
	}
	reg, err := r.Register(a, mux.Priority)
	if err != nil {
		_ = a.Close()
		if own {
			mustRelease(r)
		}
		return nil, ioError("register", a.path, err)
	}
	release := func() error {
		err := multierr.Combine(reg.Deregister(), a.Close())
		if own {
			mustRelease(r)
		}
		return err
	}
	return newEdgeStream(a.path, reg, release), nil
}

func newEdgeStream(path string, ready Readiness, release func() error) *EdgeStream {
	return &EdgeStream{path: path, ready: ready, release: release}
}

// PollNext checks for an edge without blocking.
//
// It returns true when an edge was detected. Otherwise w is woken when
// calling PollNext again may make progress.
func (s *EdgeStream) PollNext(w mux.Waker) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ioError("poll", s.path, ErrClosed)
	}
	ready, err := s.ready.PollReady(w)
	if err != nil {
		return false, ioError("poll", s.path, err)
	}
	if !ready {
		return false, nil
	}
	if err := s.ready.ClearReady(w); err != nil {
		return false, ioError("poll", s.path, err)
	}
	if !s.primed {
		s.primed = true
		return false, nil
	}
	return true, nil
}

// Next blocks the calling goroutine until the next edge or until ctx is
// done.
func (s *EdgeStream) Next(ctx context.Context) error {
	sig := mux.NewSignal()
	for {
		ok, err := s.PollNext(sig)
		if err != nil || ok {
			return err
		}
		select {
		case <-sig.C():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close deregisters the value file and closes it. Calling Close more than
// once is a no-op.
func (s *EdgeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.release()
}

// ValueStream is an endless sequence of pin values, read after each edge.
//
// Consecutive values may be equal when the pin toggled back before the read.
// They are not filtered.
type ValueStream struct {
	edges *EdgeStream
	read  func() (uint8, error)
}

// ValueStream is like EdgeStream but yields the value of the pin.
func (p Pin) ValueStream(r *mux.Reactor) (*ValueStream, error) {
	s, err := p.EdgeStream(r)
	if err != nil {
		return nil, err
	}
	return &ValueStream{edges: s, read: p.Value}, nil
}

// PollNext checks for an edge without blocking and returns the value read
// after it.
func (v *ValueStream) PollNext(w mux.Waker) (uint8, bool, error) {
	ok, err := v.edges.PollNext(w)
	if err != nil || !ok {
		return 0, false, err
	}
	value, err := v.read()
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// Next blocks the calling goroutine until the next edge or until ctx is
// done, and returns the value read after the edge.
func (v *ValueStream) Next(ctx context.Context) (uint8, error) {
	sig := mux.NewSignal()
	for {
		value, ok, err := v.PollNext(sig)
		if err != nil {
			return 0, err
		}
		if ok {
			return value, nil
		}
		select {
		case <-sig.C():
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Close releases the underlying EdgeStream.
func (v *ValueStream) Close() error {
	return v.edges.Close()
}
