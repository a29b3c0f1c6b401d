// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/sysfsgpio/mux"
)

func TestGPIOBasic(t *testing.T) {
	p := NewGPIO(NewAt(fakeRoot(t), 42))
	if s := p.String(); s != "GPIO42" {
		t.Fatal(s)
	}
	if s := p.Name(); s != "GPIO42" {
		t.Fatal(s)
	}
	if n := p.Number(); n != 42 {
		t.Fatal(n)
	}
	if pull := p.Pull(); pull != gpio.PullNoChange {
		t.Fatal(pull)
	}
	if pull := p.DefaultPull(); pull != gpio.PullNoChange {
		t.Fatal(pull)
	}
	if err := p.PWM(gpio.DutyHalf, physic.KiloHertz); err == nil {
		t.Fatal("sysfs doesn't support PWM")
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err == nil {
		t.Fatal("sysfs doesn't support pull")
	}
	if len(p.SupportedFuncs()) != 2 {
		t.Fatal(p.SupportedFuncs())
	}
	// Edge detection was never enabled.
	if p.WaitForEdge(0) {
		t.Fatal("unexpected edge")
	}
}

func TestGPIORead(t *testing.T) {
	root := fakeRoot(t)
	p := NewGPIO(fakePin(t, root, 42, "1\n"))
	if l := p.Read(); l != gpio.High {
		t.Fatal(l)
	}
	writeFile(t, p.pin.attr("value"), "0\n")
	if l := p.Read(); l != gpio.Low {
		t.Fatal(l)
	}
	writeFile(t, p.pin.attr("value"), "garbage")
	if l := p.Read(); l != gpio.Low {
		t.Fatal(l)
	}
}

func TestGPIOOut(t *testing.T) {
	root := fakeRoot(t)
	p := NewGPIO(fakePin(t, root, 42, "0\n"))
	if err := p.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if s := readFile(t, p.pin.attr("direction")); s != "high" {
		t.Fatalf("direction = %q", s)
	}
	// Already an output; only the value is written.
	if err := p.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if s := readFile(t, p.pin.attr("value")); s != "0" {
		t.Fatalf("value = %q", s)
	}
	if s := readFile(t, p.pin.attr("direction")); s != "high" {
		t.Fatalf("direction = %q", s)
	}
	if err := p.SetFunc(gpio.OUT_HIGH); err != nil {
		t.Fatal(err)
	}
	if s := readFile(t, p.pin.attr("value")); s != "1" {
		t.Fatalf("value = %q", s)
	}
}

func TestGPIOOutNotExported(t *testing.T) {
	root := fakeRoot(t)
	p := NewGPIO(NewAt(root, 42))
	if err := p.Out(gpio.High); err == nil {
		t.Fatal("expected error")
	}
	if s := readFile(t, root+"/export"); s != "42" {
		t.Fatalf("export = %q", s)
	}
}

func TestGPIOInEdge(t *testing.T) {
	f := &fakeMux{}
	created := useFakeMux(t, f)
	root := fakeRoot(t)
	p := NewGPIO(fakePin(t, root, 42, "0\n"))
	if err := p.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
		t.Fatal(err)
	}
	if s := readFile(t, p.pin.attr("direction")); s != "in" {
		t.Fatalf("direction = %q", s)
	}
	if s := readFile(t, p.pin.attr("edge")); s != "rising" {
		t.Fatalf("edge = %q", s)
	}
	// Accumulated edges are flushed without blocking.
	if len(f.timeouts) != 1 || f.timeouts[0] != 0 {
		t.Fatalf("timeouts = %v", f.timeouts)
	}
	if err := p.In(gpio.Float, gpio.BothEdges); err != nil {
		t.Fatal(err)
	}
	if s := readFile(t, p.pin.attr("edge")); s != "both" {
		t.Fatalf("edge = %q", s)
	}
	if *created != 1 {
		t.Fatalf("created %d multiplexers", *created)
	}

	f.pending = []int{1}
	if !p.WaitForEdge(time.Second) {
		t.Fatal("expected an edge")
	}
	if p.WaitForEdge(time.Millisecond) {
		t.Fatal("unexpected edge")
	}

	if err := p.Halt(); err != nil {
		t.Fatal(err)
	}
	if s := readFile(t, p.pin.attr("edge")); s != "none" {
		t.Fatalf("edge = %q", s)
	}
	if f.closes != 0 {
		t.Fatal("the poller lives as long as the pin")
	}
}

func TestGPIOFunc(t *testing.T) {
	root := fakeRoot(t)
	p := NewGPIO(fakePin(t, root, 42, "1\n"))
	if f := p.Func(); f != gpio.IN_HIGH {
		t.Fatal(f)
	}
	writeFile(t, p.pin.attr("direction"), "out\n")
	writeFile(t, p.pin.attr("value"), "0\n")
	if f := p.Func(); f != gpio.OUT_LOW {
		t.Fatal(f)
	}
	if s := p.Function(); s != string(gpio.OUT_LOW) {
		t.Fatal(s)
	}
}

// blockingMux blocks Wait calls with a non-zero timeout until release is
// closed. It is safe for concurrent use.
type blockingMux struct {
	waiting chan struct{}
	release chan struct{}

	mu      sync.Mutex
	flushes int
	once    sync.Once
}

func (b *blockingMux) Register(fd int, token mux.Token, interest mux.Interest, mode mux.Mode) error {
	return nil
}

func (b *blockingMux) Wait(events []mux.Event, timeout time.Duration) (int, error) {
	if timeout == 0 {
		b.mu.Lock()
		b.flushes++
		b.mu.Unlock()
		return 0, nil
	}
	b.once.Do(func() { close(b.waiting) })
	<-b.release
	events[0] = mux.Event{Token: valueToken, Ready: mux.Priority}
	return 1, nil
}

func (b *blockingMux) Close() error {
	return nil
}

func TestGPIOHaltDuringWaitForEdge(t *testing.T) {
	b := &blockingMux{waiting: make(chan struct{}), release: make(chan struct{})}
	old := newMultiplexer
	newMultiplexer = func() (multiplexer, error) {
		return b, nil
	}
	defer func() { newMultiplexer = old }()

	p := NewGPIO(fakePin(t, fakeRoot(t), 42, "0\n"))
	if err := p.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
		t.Fatal(err)
	}
	done := make(chan bool)
	go func() {
		done <- p.WaitForEdge(Infinite)
	}()
	<-b.waiting
	// Halt flushes through the same Poller while WaitForEdge is blocked.
	if err := p.Halt(); err != nil {
		t.Fatal(err)
	}
	if s := readFile(t, p.pin.attr("edge")); s != "none" {
		t.Fatalf("edge = %q", s)
	}
	close(b.release)
	if !<-done {
		t.Fatal("expected an edge")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushes != 2 {
		t.Fatalf("flushes = %d", b.flushes)
	}
}
