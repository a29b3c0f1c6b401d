// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mqtt publishes pin value changes to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "gpio"

// Publisher publishes pin events.
type Publisher interface {
	// Publish sends one pin event. An error must not stop the caller.
	Publish(event PinEvent) error
	// Close disconnects from the broker.
	Close() error
}

// PinEvent is a value read after an edge.
type PinEvent struct {
	Pin       int
	Value     uint8
	Timestamp time.Time
}

// Topic returns the topic a pin publishes to: <prefix>/<pin>.
func Topic(prefix string, pin int) string {
	return strings.TrimSuffix(prefix, "/") + "/" + strconv.Itoa(pin)
}

// Payload is the JSON message body.
type Payload struct {
	Pin       int    `json:"pin"`
	Value     uint8  `json:"value"`
	Timestamp string `json:"timestamp"`
}

// FormatPayload creates the JSON payload for a pin event.
func FormatPayload(event PinEvent) ([]byte, error) {
	return json.Marshal(Payload{
		Pin:       event.Pin,
		Value:     event.Value,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}
