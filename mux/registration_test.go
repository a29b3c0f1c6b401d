// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mux

import "testing"

func TestRegistrationEventBetweenPollAndClear(t *testing.T) {
	g := &Registration{}
	woken := 0
	w := WakerFunc(func() { woken++ })

	g.dispatch(Event{})
	if ready, err := g.PollReady(w); err != nil || !ready {
		t.Fatalf("PollReady() = %t, %v", ready, err)
	}
	// A second edge arrives while the first one is being handled.
	g.dispatch(Event{})
	if err := g.ClearReady(w); err != nil {
		t.Fatal(err)
	}
	if woken != 1 {
		t.Fatalf("woken = %d; the waker must be told about the kept event", woken)
	}
	if ready, err := g.PollReady(w); err != nil || !ready {
		t.Fatalf("second edge lost: PollReady() = %t, %v", ready, err)
	}
	if err := g.ClearReady(w); err != nil {
		t.Fatal(err)
	}
	if ready, err := g.PollReady(w); err != nil || ready {
		t.Fatalf("PollReady() after ClearReady = %t, %v", ready, err)
	}
	g.dispatch(Event{})
	if woken != 2 {
		t.Fatalf("woken = %d", woken)
	}
}

func TestRegistrationClear(t *testing.T) {
	g := &Registration{}
	w := WakerFunc(func() {})
	g.dispatch(Event{})
	g.dispatch(Event{})
	// Both events happened before PollReady; one readiness covers them.
	if ready, _ := g.PollReady(w); !ready {
		t.Fatal("expected ready")
	}
	if err := g.ClearReady(w); err != nil {
		t.Fatal(err)
	}
	if ready, _ := g.PollReady(w); ready {
		t.Fatal("expected cleared")
	}
}
