// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// fakeRoot returns a temporary GPIO class directory with export and unexport
// files.
func fakeRoot(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "export"), "")
	writeFile(t, filepath.Join(root, "unexport"), "")
	return root
}

// fakePin creates an exported pin directory under root.
func fakePin(t *testing.T, root string, n int, value string) Pin {
	dir := filepath.Join(root, "gpio"+strconv.Itoa(n))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "value"), value)
	writeFile(t, filepath.Join(dir, "direction"), "in\n")
	writeFile(t, filepath.Join(dir, "edge"), "none\n")
	writeFile(t, filepath.Join(dir, "active_low"), "0\n")
	return NewAt(root, n)
}

func writeFile(t *testing.T, path, content string) {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
