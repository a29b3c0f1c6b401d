// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import "periph.io/x/conn/v3/gpio"

// Direction is the content of the direction attribute.
type Direction int

const (
	// In configures the pin as an input.
	In Direction = iota
	// Out configures the pin as an output.
	Out
	// High configures the pin as an output initially high, glitch free.
	High
	// Low configures the pin as an output initially low, glitch free.
	Low
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	case High:
		return "high"
	case Low:
		return "low"
	default:
		return "Direction(?)"
	}
}

// parseDirection parses what the kernel reports. It only ever reports "in"
// or "out"; "high" and "low" are write-only.
func parseDirection(s string) (Direction, bool) {
	switch s {
	case "in":
		return In, true
	case "out":
		return Out, true
	}
	return 0, false
}

// Edge is the content of the edge attribute: which transitions make the
// value file report priority readiness.
type Edge int

const (
	// NoInterrupt disables edge reporting.
	NoInterrupt Edge = iota
	// RisingEdge reports low to high transitions.
	RisingEdge
	// FallingEdge reports high to low transitions.
	FallingEdge
	// BothEdges reports every transition.
	BothEdges
)

func (e Edge) String() string {
	switch e {
	case NoInterrupt:
		return "none"
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	case BothEdges:
		return "both"
	default:
		return "Edge(?)"
	}
}

// ParseEdge parses the name of an edge as written to the edge attribute.
func ParseEdge(s string) (Edge, error) {
	e, ok := parseEdge(s)
	if !ok {
		return 0, &Error{Kind: KindUnexpected, Op: "parse edge", Content: s}
	}
	return e, nil
}

func parseEdge(s string) (Edge, bool) {
	switch s {
	case "none":
		return NoInterrupt, true
	case "rising":
		return RisingEdge, true
	case "falling":
		return FallingEdge, true
	case "both":
		return BothEdges, true
	}
	return 0, false
}

// edgeFromGPIO maps periph's edge to the sysfs one.
func edgeFromGPIO(e gpio.Edge) Edge {
	switch e {
	case gpio.RisingEdge:
		return RisingEdge
	case gpio.FallingEdge:
		return FallingEdge
	case gpio.BothEdges:
		return BothEdges
	default:
		return NoInterrupt
	}
}
