// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command gpio-interrupt prints the value of a pin each time it changes, or
// a dot when nothing happened for a while.
//
// By default it blocks in sysfs.Poller. With -mux the pin is registered with
// a mux.Poll owned by this command instead, the way it would be added to an
// existing event loop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/sysfsgpio/mux"
	"periph.io/x/sysfsgpio/sysfs"
)

const (
	stopToken mux.Token = 0
	pinToken  mux.Token = 1
)

func main() {
	pin := flag.Int("pin", -1, "sysfs GPIO number to watch")
	edge := flag.String("edge", "both", "edge to detect: rising, falling or both")
	timeout := flag.Duration("timeout", time.Second, "print a dot after this much time without change")
	useMux := flag.Bool("mux", false, "register the pin with an event loop instead of blocking on a poller")
	root := flag.String("root", sysfs.DefaultRoot, "GPIO sysfs directory")
	flag.Parse()

	if *pin < 0 || flag.NArg() != 0 {
		flag.Usage()
		os.Exit(2)
	}
	e, err := sysfs.ParseEdge(*edge)
	if err != nil || e == sysfs.NoInterrupt {
		log.Fatalf("invalid -edge %q", *edge)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := sysfs.NewAt(*root, *pin)
	err = p.WithExported(func() error {
		if err := p.SetDirection(sysfs.In); err != nil {
			return err
		}
		if err := p.SetEdge(e); err != nil {
			return err
		}
		if *useMux {
			return runMux(ctx, os.Stdout, p, *timeout)
		}
		return runPoller(ctx, os.Stdout, p, *timeout)
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// runPoller blocks on a Poller until ctx is done.
func runPoller(ctx context.Context, w io.Writer, p sysfs.Pin, timeout time.Duration) error {
	poller, err := p.Poller()
	if err != nil {
		return err
	}
	defer poller.Close()
	for ctx.Err() == nil {
		v, ok, err := poller.Poll(timeout)
		if err != nil {
			return err
		}
		printValue(w, v, ok)
	}
	return nil
}

// runMux drives an AsyncPoller from a mux.Poll. A Notifier wakes the loop up
// when ctx is done.
func runMux(ctx context.Context, w io.Writer, p sysfs.Pin, timeout time.Duration) (err error) {
	poll, err := mux.New()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := poll.Close(); err == nil {
			err = cerr
		}
	}()
	n, err := mux.NewNotifier(poll, stopToken)
	if err != nil {
		return err
	}
	defer n.Close()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = n.Notify()
		case <-done:
		}
	}()

	a, err := p.AsyncPoller()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Register(poll, pinToken, mux.Priority, mux.Edge); err != nil {
		return err
	}
	defer a.Deregister(poll)

	events := make([]mux.Event, 2)
	armed := false
	for {
		nr, err := poll.Wait(events, timeout)
		if err != nil {
			return err
		}
		if nr == 0 {
			printValue(w, 0, false)
			continue
		}
		for _, ev := range events[:nr] {
			switch ev.Token {
			case stopToken:
				return nil
			case pinToken:
				// The first event is reported as soon as the file is registered.
				if !armed {
					armed = true
					continue
				}
				v, err := p.Value()
				if err != nil {
					return err
				}
				printValue(w, v, true)
			default:
				return errors.New("unexpected token")
			}
		}
	}
}

func printValue(w io.Writer, v uint8, ok bool) {
	if ok {
		fmt.Fprintf(w, "%d\n", v)
	} else {
		fmt.Fprint(w, ".")
	}
}
