// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"periph.io/x/sysfsgpio/internal/mqtt"
	"periph.io/x/sysfsgpio/sysfs"
)

func TestRunWatchesEachPin(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "gpio9")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	// No value file: the watcher for gpio9 fails to open it.
	for _, name := range []string{"direction", "edge"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	pub := mqtt.NewFakePublisher()
	cfg := config{pins: []int{9}, edge: sysfs.BothEdges, root: root}
	err := run(context.Background(), cfg, pub, zap.NewNop())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("run() = %v", err)
	}
	if !strings.Contains(err.Error(), filepath.Join(dir, "value")) {
		t.Fatalf("error doesn't name the pin: %v", err)
	}
	if got := pub.Snapshot(); len(got) != 0 {
		t.Fatalf("published %v", got)
	}
}
