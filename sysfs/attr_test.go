// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestParseBit(t *testing.T) {
	data := []struct {
		in   string
		want uint8
	}{
		{"0", 0},
		{"1", 1},
		{"0\n", 0},
		{"1\n", 1},
		{" 1 ", 1},
		{"\t0\r\n", 0},
	}
	for _, line := range data {
		if v, ok := parseBit(line.in); !ok || v != line.want {
			t.Errorf("parseBit(%q) = %d, %t; want %d", line.in, v, ok, line.want)
		}
	}
	for _, in := range []string{"", "\n", "2", "10", "01", "high", "-1"} {
		if _, ok := parseBit(in); ok {
			t.Errorf("parseBit(%q) succeeded", in)
		}
	}
}

func TestReadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	writeFile(t, path, "1\n")
	if v, err := readValue(path); err != nil || v != 1 {
		t.Fatalf("readValue() = %d, %v", v, err)
	}
	writeFile(t, path, "0")
	if v, err := readValue(path); err != nil || v != 0 {
		t.Fatalf("readValue() = %d, %v", v, err)
	}
}

func TestReadValueUnexpected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value")
	writeFile(t, path, "high\n")
	_, err := readValue(path)
	if !errors.Is(err, ErrUnexpected) {
		t.Fatalf("expected ErrUnexpected, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Content != "high\n" {
		t.Fatalf("Content = %q", e.Content)
	}
}

func TestReadValueMissing(t *testing.T) {
	_, err := readValue(filepath.Join(t.TempDir(), "value"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindIO {
		t.Fatalf("expected KindIO, got %v", err)
	}
}

func TestWriteAttrTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge")
	writeFile(t, path, "falling\n")
	if err := writeAttr("write edge", path, "both"); err != nil {
		t.Fatal(err)
	}
	if s := readFile(t, path); s != "both" {
		t.Fatalf("content = %q", s)
	}
}

func TestWriteAttrDoesNotCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge")
	if err := writeAttr("write edge", path, "both"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
