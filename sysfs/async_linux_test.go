// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build linux

package sysfs

import (
	"errors"
	"io/fs"
	"testing"

	"periph.io/x/sysfsgpio/mux"
)

// recordingRegistry records the calls forwarded by a Source.
type recordingRegistry struct {
	calls []string
	fds   []int
}

func (r *recordingRegistry) Register(fd int, token mux.Token, interest mux.Interest, mode mux.Mode) error {
	r.calls = append(r.calls, "register "+interest.String()+" "+mode.String())
	r.fds = append(r.fds, fd)
	return nil
}

func (r *recordingRegistry) Reregister(fd int, token mux.Token, interest mux.Interest, mode mux.Mode) error {
	r.calls = append(r.calls, "reregister "+interest.String()+" "+mode.String())
	r.fds = append(r.fds, fd)
	return nil
}

func (r *recordingRegistry) Deregister(fd int) error {
	r.calls = append(r.calls, "deregister")
	r.fds = append(r.fds, fd)
	return errors.New("gone")
}

func TestAsyncPoller(t *testing.T) {
	p := fakePin(t, fakeRoot(t), 60, "0\n")
	a, err := p.AsyncPoller()
	if err != nil {
		t.Fatal(err)
	}
	if a.Pin() != p {
		t.Fatalf("Pin() = %v", a.Pin())
	}
	r := &recordingRegistry{}
	if err := a.Register(r, 3, mux.Priority, mux.Edge); err != nil {
		t.Fatal(err)
	}
	if err := a.Reregister(r, 3, mux.Priority, mux.Oneshot); err != nil {
		t.Fatal(err)
	}
	// Errors are forwarded as is.
	if err := a.Deregister(r); err == nil || err.Error() != "gone" {
		t.Fatalf("Deregister() = %v", err)
	}
	want := []string{"register priority edge", "reregister priority oneshot", "deregister"}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Errorf("call #%d = %q; want %q", i, r.calls[i], want[i])
		}
		if r.fds[i] != a.Fd() {
			t.Errorf("call #%d used fd %d; want %d", i, r.fds[i], a.Fd())
		}
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestAsyncPollerMissing(t *testing.T) {
	if _, err := NewAt(fakeRoot(t), 60).AsyncPoller(); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
