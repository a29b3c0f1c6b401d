// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mqtt

import "sync"

// FakePublisher records published events for test assertions.
//
// It is safe for concurrent use.
type FakePublisher struct {
	mu sync.Mutex

	// Events contains all pin events that were published.
	Events []PinEvent
	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte
	// PublishError, if set, is returned by Publish.
	PublishError error
	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the pin event.
func (f *FakePublisher) Publish(event PinEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Snapshot returns a copy of the recorded events.
func (f *FakePublisher) Snapshot() []PinEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PinEvent(nil), f.Events...)
}
