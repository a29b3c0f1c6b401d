// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"os"
	"strings"
)

// readAttr returns the raw content of an attribute file.
//
// The file is opened for each call; sysfs attributes are never cached.
func readAttr(op, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", ioError(op, path, err)
	}
	return string(b), nil
}

// writeAttr replaces the content of an existing attribute file.
func writeAttr(op, path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return ioError(op, path, err)
	}
	if _, err = f.Write([]byte(value)); err != nil {
		_ = f.Close()
		return ioError(op, path, err)
	}
	if err = f.Close(); err != nil {
		return ioError(op, path, err)
	}
	return nil
}

// parseBit parses "0" or "1", ignoring surrounding whitespace.
func parseBit(raw string) (uint8, bool) {
	switch strings.TrimSpace(raw) {
	case "0":
		return 0, true
	case "1":
		return 1, true
	}
	return 0, false
}

// readValue is the attribute channel: a fresh read of the value file.
func readValue(path string) (uint8, error) {
	raw, err := readAttr("read value", path)
	if err != nil {
		return 0, err
	}
	v, ok := parseBit(raw)
	if !ok {
		return 0, unexpected("read value", path, raw)
	}
	return v, nil
}
