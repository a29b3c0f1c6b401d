// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command sysfs-smoketest runs the GPIO sysfs smoke test against two pins
// wired together.
//
//	sysfs-smoketest -in 20 -out 21
package main

import (
	"flag"
	"fmt"
	"os"

	"periph.io/x/sysfsgpio/sysfs/sysfssmoketest"
)

func main() {
	s := &sysfssmoketest.SmokeTest{}
	f := flag.NewFlagSet(s.Name(), flag.ExitOnError)
	f.Usage = func() {
		fmt.Fprintf(f.Output(), "%s: %s\n\n", s.Name(), s.Description())
		f.PrintDefaults()
	}
	fmt.Printf("%s:\n", s.Description())
	if err := s.Run(f, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "sysfs-smoketest: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: OK\n", s.Name())
}
