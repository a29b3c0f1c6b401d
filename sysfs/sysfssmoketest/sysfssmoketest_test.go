// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfssmoketest

import (
	"flag"
	"io"
	"testing"
)

func TestRunFlags(t *testing.T) {
	data := [][]string{
		{},
		{"-in", "3"},
		{"-in", "3", "-out", "3"},
		{"-in", "3", "-out", "4", "extra"},
	}
	for i, args := range data {
		s := &SmokeTest{}
		f := flag.NewFlagSet(s.Name(), flag.ContinueOnError)
		f.SetOutput(io.Discard)
		if err := s.Run(f, args); err == nil {
			t.Errorf("#%d: Run(%v) succeeded", i, args)
		}
	}
}

func TestRunMissingRoot(t *testing.T) {
	s := &SmokeTest{}
	f := flag.NewFlagSet(s.Name(), flag.ContinueOnError)
	f.SetOutput(io.Discard)
	if err := s.Run(f, []string{"-in", "3", "-out", "4", "-root", t.TempDir() + "/nope"}); err == nil {
		t.Fatal("expected export error")
	}
}
