// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysfsgpio registers the GPIO sysfs driver with periph.
//
// The interesting code lives in periph.io/x/sysfsgpio/sysfs: blocking edge
// polling, a descriptor adapter for caller owned event loops and edge and
// value streams. periph.io/x/sysfsgpio/mux is the readiness multiplexer they
// are built on.
package sysfsgpio

import (
	"periph.io/x/conn/v3/driver/driverreg"

	// Make sure the sysfs driver is registered.
	_ "periph.io/x/sysfsgpio/sysfs"
)

// Init calls driverreg.Init() and returns it as-is.
//
// The only difference is that by calling sysfsgpio.Init(), you are
// guaranteed to have the GPIO sysfs driver implicitly loaded.
func Init() (*driverreg.State, error) {
	return driverreg.Init()
}
