// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// GPIO is a Pin usable through periph's gpio.PinIO.
//
// The pin is exported on first use. Edge detection uses a Poller that lives
// as long as the GPIO.
type GPIO struct {
	pin  Pin
	name string

	mu        sync.Mutex
	opened    bool
	err       error     // If open() failed
	direction direction // Cache of the last known direction
	edge      gpio.Edge // Cache of the last edge used.
	poller    *Poller   // Initialized once; never closed
}

// NewGPIO returns the gpio.PinIO for p.
func NewGPIO(p Pin) *GPIO {
	return &GPIO{pin: p, name: p.String()}
}

// Sysfs returns the underlying sysfs pin.
func (p *GPIO) Sysfs() Pin {
	return p.pin
}

// String implements conn.Resource.
func (p *GPIO) String() string {
	return p.name
}

// Halt implements conn.Resource.
//
// It stops edge detection if enabled.
func (p *GPIO) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.haltEdge()
}

// Name implements pin.Pin.
func (p *GPIO) Name() string {
	return p.name
}

// Number implements pin.Pin.
func (p *GPIO) Number() int {
	return p.pin.Number()
}

// Function implements pin.Pin.
func (p *GPIO) Function() string {
	return string(p.Func())
}

// Func implements pin.PinFunc.
func (p *GPIO) Func() pin.Func {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(); err != nil {
		return pin.FuncNone
	}
	d, err := p.pin.Direction()
	if err != nil {
		return pin.FuncNone
	}
	switch d {
	case In:
		p.direction = dIn
		if p.Read() {
			return gpio.IN_HIGH
		}
		return gpio.IN_LOW
	case Out:
		p.direction = dOut
		if p.Read() {
			return gpio.OUT_HIGH
		}
		return gpio.OUT_LOW
	}
	return pin.FuncNone
}

// SupportedFuncs implements pin.PinFunc.
func (p *GPIO) SupportedFuncs() []pin.Func {
	return []pin.Func{gpio.IN, gpio.OUT}
}

// SetFunc implements pin.PinFunc.
func (p *GPIO) SetFunc(f pin.Func) error {
	switch f {
	case gpio.IN:
		return p.In(gpio.PullNoChange, gpio.NoEdge)
	case gpio.OUT_HIGH:
		return p.Out(gpio.High)
	case gpio.OUT, gpio.OUT_LOW:
		return p.Out(gpio.Low)
	default:
		return p.wrap(errors.New("unsupported function"))
	}
}

// In implements gpio.PinIn.
func (p *GPIO) In(pull gpio.Pull, edge gpio.Edge) error {
	if pull != gpio.PullNoChange && pull != gpio.Float {
		return p.wrap(errors.New("doesn't support pull-up/pull-down"))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(); err != nil {
		return p.wrap(err)
	}
	if p.direction != dIn {
		if err := p.pin.SetDirection(In); err != nil {
			return p.wrap(err)
		}
		p.direction = dIn
	}
	// Always push none to help accumulated flush edges. This is not fool proof
	// but it seems to help.
	if p.poller != nil {
		if err := p.pin.SetEdge(NoInterrupt); err != nil {
			return p.wrap(err)
		}
	}
	if edge != gpio.NoEdge {
		if p.poller == nil {
			var err error
			if p.poller, err = p.pin.Poller(); err != nil {
				return p.wrap(err)
			}
		}
		// Always reset the edge detection mode to none after registering the
		// value file, otherwise edges are not always delivered, as observed on
		// an Allwinner A20 running kernel 4.14.14.
		if err := p.pin.SetEdge(NoInterrupt); err != nil {
			return p.wrap(err)
		}
		if err := p.pin.SetEdge(edgeFromGPIO(edge)); err != nil {
			return p.wrap(err)
		}
	}
	p.edge = edge
	// This removes accumulated edges most of the time. An interrupt the
	// kernel held for a long time may still show up afterward.
	if edge != gpio.NoEdge {
		p.flush()
	}
	return nil
}

// Read implements gpio.PinIn.
func (p *GPIO) Read() gpio.Level {
	// There's no lock here.
	v, err := p.pin.Value()
	if err != nil {
		return gpio.Low
	}
	return gpio.Level(v == 1)
}

// WaitForEdge implements gpio.PinIn.
//
// It returns false on timeout, when edge detection is not enabled, or on
// error.
func (p *GPIO) WaitForEdge(timeout time.Duration) bool {
	// Don't hold the lock while waiting, as the normal use is to call in a
	// busy loop.
	p.mu.Lock()
	poller := p.poller
	p.mu.Unlock()
	if poller == nil {
		return false
	}
	_, ok, err := poller.Poll(timeout)
	return err == nil && ok
}

// Pull implements gpio.PinIn.
//
// It returns gpio.PullNoChange since gpio sysfs has no support for input pull
// resistor.
func (p *GPIO) Pull() gpio.Pull {
	return gpio.PullNoChange
}

// DefaultPull implements gpio.PinIn.
//
// It returns gpio.PullNoChange since gpio sysfs has no support for input pull
// resistor.
func (p *GPIO) DefaultPull() gpio.Pull {
	return gpio.PullNoChange
}

// Out implements gpio.PinOut.
func (p *GPIO) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.direction != dOut {
		if err := p.open(); err != nil {
			return p.wrap(err)
		}
		if err := p.haltEdge(); err != nil {
			return err
		}
		// "To ensure glitch free operation, values "low" and "high" may be written
		// to configure the GPIO as an output with that initial value."
		d := Low
		if l == gpio.High {
			d = High
		}
		if err := p.pin.SetDirection(d); err != nil {
			return p.wrap(err)
		}
		p.direction = dOut
		return nil
	}
	var v uint8
	if l == gpio.High {
		v = 1
	}
	if err := p.pin.SetValue(v); err != nil {
		return p.wrap(err)
	}
	return nil
}

// PWM implements gpio.PinOut.
//
// This is not supported on sysfs.
func (p *GPIO) PWM(gpio.Duty, physic.Frequency) error {
	return p.wrap(errors.New("pwm is not supported via sysfs"))
}

//

// open exports the pin if needed.
//
// lock must be held.
func (p *GPIO) open() error {
	if p.opened || p.err != nil {
		return p.err
	}
	if p.err = p.pin.Export(); p.err == nil {
		p.opened = true
	}
	return p.err
}

// haltEdge stops any on-going edge detection.
//
// lock must be held.
func (p *GPIO) haltEdge() error {
	if p.edge != gpio.NoEdge {
		if err := p.pin.SetEdge(NoInterrupt); err != nil {
			return p.wrap(err)
		}
		p.edge = gpio.NoEdge
		// This is still important to remove an accumulated edge.
		p.flush()
	}
	return nil
}

// flush consumes an edge already pending, without blocking.
func (p *GPIO) flush() {
	if p.poller != nil {
		_, _, _ = p.poller.Poll(0)
	}
}

func (p *GPIO) wrap(err error) error {
	return fmt.Errorf("sysfs-gpio (%s): %w", p, err)
}

//

type direction int

const (
	dUnknown direction = 0
	dIn      direction = 1
	dOut     direction = 2
)

var _ conn.Resource = &GPIO{}
var _ gpio.PinIn = &GPIO{}
var _ gpio.PinOut = &GPIO{}
var _ gpio.PinIO = &GPIO{}
var _ pin.PinFunc = &GPIO{}
