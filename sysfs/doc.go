// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysfs implements GPIO edge detection through the Linux GPIO sysfs
// interface, /sys/class/gpio.
//
// A Pin is a number and the directory it is exported to. It reads and writes
// the direction, edge, active_low and value attributes, each access opening
// the file anew.
//
// Once the edge attribute is set, a change of the pin is reported by the
// kernel as priority readiness of the value file. Three ways to consume it
// are provided:
//
//   - Poller blocks the calling goroutine with a timeout. It owns an epoll
//     instance.
//   - AsyncPoller is a mux.Source: the value file descriptor, ready to be
//     registered with a caller owned mux.Poll.
//   - EdgeStream and ValueStream are driven by a shared mux.Reactor. PollNext
//     never blocks; Next parks the goroutine until the next edge.
//
// The first readiness after registering the value file doesn't correspond to
// a pin change. Streams discard it; AsyncPoller users must do the same.
//
// GPIO adapts a Pin to periph.io/x/conn/v3/gpio.PinIO and the driver
// registers every line of every gpiochip with gpioreg.
//
// Polling requires epoll. On other platforms the constructors fail with
// ErrUnsupported.
package sysfs
