// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
)

// DefaultRoot is where the kernel exposes GPIO sysfs.
const DefaultRoot = "/sys/class/gpio"

// exportSettle bounds how long Export waits for udev to make a freshly
// exported pin accessible.
var exportSettle = 5 * time.Second

// Pin is a GPIO line addressed by its sysfs number.
//
// Pin owns no OS resource and can be copied freely. The pin is not checked
// for existence until an operation is attempted.
type Pin struct {
	number int
	root   string
}

// New returns the pin number under DefaultRoot.
func New(number int) Pin {
	return Pin{number: number, root: DefaultRoot}
}

// NewAt returns the pin number under a sysfs GPIO class directory other
// than DefaultRoot.
func NewAt(root string, number int) Pin {
	return Pin{number: number, root: root}
}

// FromPath returns the pin for an exported pin directory like
// /sys/class/gpio/gpio60.
func FromPath(path string) (Pin, error) {
	path = filepath.Clean(path)
	fi, err := os.Stat(path)
	if err != nil {
		return Pin{}, ioError("stat", path, err)
	}
	if !fi.IsDir() {
		return Pin{}, &Error{Kind: KindInvalidPath, Op: "parse", Path: path, Err: errors.New("not a directory")}
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "gpio") {
		return Pin{}, &Error{Kind: KindInvalidPath, Op: "parse", Path: path, Err: errors.New("expected a gpioN directory")}
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, "gpio"))
	if err != nil || n < 0 {
		return Pin{}, &Error{Kind: KindInvalidPath, Op: "parse", Path: path, Err: errors.New("expected a gpioN directory")}
	}
	return NewAt(filepath.Dir(path), n), nil
}

// Number returns the sysfs pin number.
func (p Pin) Number() int {
	return p.number
}

// Root returns the GPIO class directory the pin lives in.
func (p Pin) Root() string {
	return p.root
}

func (p Pin) String() string {
	return fmt.Sprintf("GPIO%d", p.number)
}

// Dir returns the pin directory, present only while exported.
func (p Pin) Dir() string {
	return filepath.Join(p.root, "gpio"+strconv.Itoa(p.number))
}

func (p Pin) attr(name string) string {
	return filepath.Join(p.Dir(), name)
}

// IsExported reports whether the pin directory exists.
func (p Pin) IsExported() bool {
	fi, err := os.Stat(p.Dir())
	return err == nil && fi.IsDir()
}

// Export asks the kernel to expose the pin.
//
// This is equivalent to `echo N > /sys/class/gpio/export`, except that a pin
// already exported is not an error.
func (p Pin) Export() error {
	if p.IsExported() {
		return nil
	}
	if err := writeAttr("export", filepath.Join(p.root, "export"), strconv.Itoa(p.number)); err != nil && !isErrBusy(err) {
		return err
	}
	return p.settle()
}

// settle waits for udev to make the direction file writable.
//
// The virtual file creation is synchronous when writing to export, but udev
// rule execution that changes the file mode is not.
func (p Pin) settle() error {
	path := p.attr("direction")
	var err error
	for start := time.Now(); time.Since(start) < exportSettle; time.Sleep(10 * time.Millisecond) {
		var f *os.File
		if f, err = os.OpenFile(path, os.O_WRONLY, 0); err == nil {
			_ = f.Close()
			return nil
		}
		if !os.IsPermission(err) {
			// Some kernels don't expose direction for fixed pins.
			return nil
		}
	}
	return ioError("export", path, fmt.Errorf("need more access, try as root or setup udev rules: %w", err))
}

// Unexport removes the pin directory. A pin not exported is not an error.
func (p Pin) Unexport() error {
	if !p.IsExported() {
		return nil
	}
	return writeAttr("unexport", filepath.Join(p.root, "unexport"), strconv.Itoa(p.number))
}

// WithExported exports the pin, runs fn and unexports the pin whether fn
// failed or not.
func (p Pin) WithExported(fn func() error) error {
	if err := p.Export(); err != nil {
		return err
	}
	return multierr.Append(fn(), p.Unexport())
}

// Direction reads the direction attribute.
func (p Pin) Direction() (Direction, error) {
	path := p.attr("direction")
	raw, err := readAttr("read direction", path)
	if err != nil {
		return 0, err
	}
	d, ok := parseDirection(strings.TrimSpace(raw))
	if !ok {
		return 0, unexpected("read direction", path, raw)
	}
	return d, nil
}

// SetDirection writes the direction attribute.
//
// High and Low configure an output with that initial level, without a
// glitch. The file may be missing when the kernel doesn't allow changing the
// direction of this pin from userspace.
func (p Pin) SetDirection(d Direction) error {
	return writeAttr("write direction", p.attr("direction"), d.String())
}

// Edge reads the edge attribute.
func (p Pin) Edge() (Edge, error) {
	path := p.attr("edge")
	raw, err := readAttr("read edge", path)
	if err != nil {
		return 0, err
	}
	e, ok := parseEdge(strings.TrimSpace(raw))
	if !ok {
		return 0, unexpected("read edge", path, raw)
	}
	return e, nil
}

// SetEdge writes the edge attribute. It must be set to something other
// than NoInterrupt for polling to report anything.
func (p Pin) SetEdge(e Edge) error {
	return writeAttr("write edge", p.attr("edge"), e.String())
}

// ActiveLow reads the active_low attribute.
func (p Pin) ActiveLow() (bool, error) {
	path := p.attr("active_low")
	raw, err := readAttr("read active_low", path)
	if err != nil {
		return false, err
	}
	v, ok := parseBit(raw)
	if !ok {
		return false, unexpected("read active_low", path, raw)
	}
	return v == 1, nil
}

// SetActiveLow writes the active_low attribute, which inverts the meaning
// of value for both reads and writes.
func (p Pin) SetActiveLow(activeLow bool) error {
	v := "0"
	if activeLow {
		v = "1"
	}
	return writeAttr("write active_low", p.attr("active_low"), v)
}

// Value reads the pin value: 0 or 1.
//
// Whether 1 means high depends on active_low.
func (p Pin) Value() (uint8, error) {
	return readValue(p.attr("value"))
}

// SetValue drives the pin. 0 sets it low, anything else sets it high.
func (p Pin) SetValue(v uint8) error {
	s := "1"
	if v == 0 {
		s = "0"
	}
	return writeAttr("write value", p.attr("value"), s)
}

func isErrBusy(err error) bool {
	return errors.Is(err, syscall.EBUSY)
}
