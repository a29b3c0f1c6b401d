// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysfssmoketest verifies that edge detection through GPIO sysfs
// works on real hardware.
//
// It needs two pins wired together: the output pin drives the input pin.
package sysfssmoketest

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"

	"periph.io/x/sysfsgpio/mux"
	"periph.io/x/sysfsgpio/sysfs"
)

// SmokeTest is imported by sysfs-smoketest.
type SmokeTest struct {
}

// Name implements the SmokeTest interface.
func (s *SmokeTest) Name() string {
	return "sysfs"
}

// Description implements the SmokeTest interface.
func (s *SmokeTest) Description() string {
	return "Tests GPIO sysfs edge detection on two pins wired together"
}

// Run implements the SmokeTest interface.
func (s *SmokeTest) Run(f *flag.FlagSet, args []string) (err error) {
	in := f.Int("in", -1, "input pin, wired to -out")
	out := f.Int("out", -1, "output pin, wired to -in")
	root := f.String("root", sysfs.DefaultRoot, "GPIO sysfs directory")
	if err := f.Parse(args); err != nil {
		return err
	}
	if f.NArg() != 0 {
		f.Usage()
		return errors.New("unrecognized arguments")
	}
	if *in < 0 || *out < 0 {
		return errors.New("-in and -out are required")
	}
	if *in == *out {
		return errors.New("-in and -out must be different pins")
	}

	pIn := sysfs.NewAt(*root, *in)
	pOut := sysfs.NewAt(*root, *out)
	for _, p := range []sysfs.Pin{pIn, pOut} {
		if err := p.Export(); err != nil {
			return err
		}
	}
	defer func() {
		err = multierr.Combine(err, pIn.Unexport(), pOut.Unexport())
	}()

	gIn := sysfs.NewGPIO(pIn)
	gOut := sysfs.NewGPIO(pOut)
	defer func() {
		err = multierr.Combine(err, gIn.Halt(), gOut.Halt())
	}()
	if err := gpioTest(&loggingPin{gIn}, &loggingPin{gOut}); err != nil {
		return err
	}
	if err := gpioPerfTest(gOut); err != nil {
		return err
	}
	if err := edgeTest(gIn, gOut); err != nil {
		return err
	}
	if err := pollerTest(pIn, gOut); err != nil {
		return err
	}
	return streamTest(pIn, gOut)
}

// gpioPerfTest reads and write in a tight loop to evaluate performance.
//
// It doesn't evaluate correctness.
func gpioPerfTest(p gpio.PinIO) error {
	fmt.Printf("  GPIO performance on %s:\n", p)
	const loops = 1000
	fmt.Printf("    %d reads:  ", loops)
	start := time.Now()
	for i := 0; i < loops; i++ {
		p.Read()
	}
	s := time.Since(start)
	fmt.Printf("%s; %s/op\n", s, s/loops)
	fmt.Printf("    %d writes: ", loops)
	if err := p.Out(gpio.Low); err != nil {
		return err
	}
	start = time.Now()
	for i := 0; i < loops; i++ {
		if err := p.Out(gpio.Low); err != nil {
			return err
		}
	}
	s = time.Since(start)
	fmt.Printf("%s; %s/op\n", s, s/loops)
	return nil
}

// gpioTest ensures connectivity works.
func gpioTest(p1, p2 gpio.PinIO) error {
	fmt.Printf("  GPIO functionality on %s and %s:\n", p1, p2)
	if err := p1.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return err
	}
	for _, l := range []gpio.Level{gpio.Low, gpio.High, gpio.Low} {
		if err := p2.Out(l); err != nil {
			return err
		}
		// There can be a small amount of skew. This should inject just enough time.
		time.Sleep(10 * time.Microsecond)
		if got := p1.Read(); got != l {
			return fmt.Errorf("%s: expected to read %s but got %s", p1, l, got)
		}
	}
	return nil
}

// edgeTest ensures gpio.PinIn.WaitForEdge sees the edges driven by out.
func edgeTest(in, out gpio.PinIO) error {
	fmt.Printf("  Edge detection on %s:\n", in)
	if err := out.Out(gpio.Low); err != nil {
		return err
	}
	if err := in.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
		return err
	}
	if in.WaitForEdge(10 * time.Millisecond) {
		return fmt.Errorf("%s: unexpected edge without change", in)
	}
	if err := out.Out(gpio.High); err != nil {
		return err
	}
	if !in.WaitForEdge(time.Second) {
		return fmt.Errorf("%s: rising edge not detected", in)
	}
	// A falling edge isn't reported.
	if err := out.Out(gpio.Low); err != nil {
		return err
	}
	if in.WaitForEdge(10 * time.Millisecond) {
		return fmt.Errorf("%s: unexpected falling edge", in)
	}
	fmt.Printf("    OK\n")
	return in.Halt()
}

// pollerTest ensures a Poller reads the value after each edge.
func pollerTest(in sysfs.Pin, out gpio.PinIO) (err error) {
	fmt.Printf("  Poller on %s:\n", in)
	if err := in.SetEdge(sysfs.BothEdges); err != nil {
		return err
	}
	p, err := in.Poller()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, p.Close())
	}()
	// Nothing happened yet; the first wait may see the stale event.
	if _, _, err := p.Poll(0); err != nil {
		return err
	}
	if _, ok, err := p.Poll(0); err != nil || ok {
		return fmt.Errorf("%s: Poll(0) = %t, %v; expected no change", in, ok, err)
	}
	for _, l := range []gpio.Level{gpio.High, gpio.Low} {
		if err := out.Out(l); err != nil {
			return err
		}
		v, ok, err := p.Poll(time.Second)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: edge to %s not detected", in, l)
		}
		if gpio.Level(v == 1) != l {
			return fmt.Errorf("%s: expected to read %s but got %d", in, l, v)
		}
	}
	fmt.Printf("    OK\n")
	return nil
}

// streamTest ensures a ValueStream on a shared Reactor yields one value per
// edge.
func streamTest(in sysfs.Pin, out gpio.PinIO) (err error) {
	fmt.Printf("  Value stream on %s:\n", in)
	r, err := mux.NewReactor()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, r.Close())
	}()
	s, err := in.ValueStream(r)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()
	// Let the reactor report the registration event before driving edges.
	time.Sleep(10 * time.Millisecond)
	for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := out.Out(l); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		v, err := s.Next(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: edge to %s: %w", in, l, err)
		}
		if gpio.Level(v == 1) != l {
			fmt.Printf("    %s: read %d after edge to %s; the pin toggled back before the read\n", in, v, l)
		}
	}
	fmt.Printf("    OK\n")
	return nil
}

// loggingPin logs when its state changes.
type loggingPin struct {
	gpio.PinIO
}

func (p *loggingPin) In(pull gpio.Pull, edge gpio.Edge) error {
	start := time.Now()
	if err := p.PinIO.In(pull, edge); err != nil {
		fmt.Printf("    %s %s.In(%s, %s) = %v\n", time.Since(start), p, pull, edge, err)
		return err
	}
	fmt.Printf("    %s %s.In(%s, %s)\n", time.Since(start), p, pull, edge)
	return nil
}

func (p *loggingPin) Read() gpio.Level {
	start := time.Now()
	l := p.PinIO.Read()
	fmt.Printf("    %s %s.Read() = %s\n", time.Since(start), p, l)
	return l
}

func (p *loggingPin) Out(l gpio.Level) error {
	start := time.Now()
	if err := p.PinIO.Out(l); err != nil {
		fmt.Printf("    %s %s.Out(%s) = %v\n", time.Since(start), p, l, err)
		return err
	}
	fmt.Printf("    %s %s.Out(%s)\n", time.Since(start), p, l)
	return nil
}
