// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mux

// Waker is woken when a suspended operation may make progress.
//
// Wake may be called from any goroutine, more than once, and must not block.
type Waker interface {
	Wake()
}

// WakerFunc adapts a function to Waker.
type WakerFunc func()

// Wake implements Waker.
func (f WakerFunc) Wake() {
	f()
}

// Signal is a Waker for goroutines that park until readiness changes.
//
// Wakes coalesce: any number of Wake calls before a receive on C produce a
// single value.
type Signal struct {
	c chan struct{}
}

// NewSignal returns an unsignaled Signal.
func NewSignal() *Signal {
	return &Signal{c: make(chan struct{}, 1)}
}

// Wake implements Waker.
func (s *Signal) Wake() {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

// C is the channel that receives a value after Wake.
func (s *Signal) C() <-chan struct{} {
	return s.c
}
