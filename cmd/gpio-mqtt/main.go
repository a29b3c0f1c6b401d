// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command gpio-mqtt watches GPIO pins and publishes their value to MQTT each
// time an edge is detected.
//
// All pins share one mux.Reactor; each pin is read by a sysfs.ValueStream on
// its own goroutine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"periph.io/x/sysfsgpio/internal/mqtt"
	"periph.io/x/sysfsgpio/mux"
	"periph.io/x/sysfsgpio/sysfs"
)

func main() {
	pins := flag.String("pins", "", "comma separated sysfs GPIO numbers to watch")
	edge := flag.String("edge", "both", "edge to detect: rising, falling or both")
	root := flag.String("root", sysfs.DefaultRoot, "GPIO sysfs directory")
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker address")
	clientID := flag.String("client-id", "gpio-mqtt", "MQTT client id")
	prefix := flag.String("prefix", mqtt.DefaultPrefix, "MQTT topic prefix; values go to <prefix>/<pin>")
	qos := flag.Int("qos", 0, "MQTT QoS: 0, 1 or 2")
	retained := flag.Bool("retained", true, "publish retained messages")
	unexport := flag.Bool("unexport", false, "unexport the pins on exit")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpio-mqtt: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := parseConfig(*pins, *edge, *qos)
	if err != nil {
		log.Fatal("invalid flags", zap.Error(err))
	}
	cfg.root = *root
	cfg.unexport = *unexport

	pub, err := mqtt.NewRealPublisher(mqtt.Config{
		Broker:   *broker,
		ClientID: *clientID,
		Prefix:   *prefix,
		QoS:      cfg.qos,
		Retained: *retained,
	}, log)
	if err != nil {
		log.Fatal("init mqtt", zap.Error(err))
	}
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, pub, log); err != nil {
		log.Fatal("fatal", zap.Error(err))
	}
	log.Info("shutting down")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type config struct {
	pins     []int
	edge     sysfs.Edge
	qos      byte
	root     string
	unexport bool
}

func parseConfig(pins, edge string, qos int) (config, error) {
	var cfg config
	var err error
	if cfg.pins, err = parsePins(pins); err != nil {
		return cfg, err
	}
	if cfg.edge, err = sysfs.ParseEdge(edge); err != nil {
		return cfg, err
	}
	if cfg.edge == sysfs.NoInterrupt {
		return cfg, errors.New("-edge none would never report anything")
	}
	if qos < 0 || qos > 2 {
		return cfg, fmt.Errorf("invalid -qos %d", qos)
	}
	cfg.qos = byte(qos)
	return cfg, nil
}

// parsePins parses "60,61, 62" into pin numbers. Duplicates are refused,
// the same pin can't be polled twice.
func parsePins(s string) ([]int, error) {
	var out []int
	seen := map[int]bool{}
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid pin %q", f)
		}
		if seen[n] {
			return nil, fmt.Errorf("pin %d listed twice", n)
		}
		seen[n] = true
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New("-pins is required")
	}
	return out, nil
}

// setup exports and configures every pin for edge detection.
func setup(cfg config) ([]sysfs.Pin, error) {
	pins := make([]sysfs.Pin, 0, len(cfg.pins))
	for _, n := range cfg.pins {
		p := sysfs.NewAt(cfg.root, n)
		if err := p.Export(); err != nil {
			return nil, err
		}
		if err := p.SetDirection(sysfs.In); err != nil {
			return nil, err
		}
		if err := p.SetEdge(cfg.edge); err != nil {
			return nil, err
		}
		pins = append(pins, p)
	}
	return pins, nil
}

func run(ctx context.Context, cfg config, pub mqtt.Publisher, log *zap.Logger) (err error) {
	pins, err := setup(cfg)
	if err != nil {
		return err
	}
	if cfg.unexport {
		defer func() {
			for _, p := range pins {
				err = multierr.Append(err, p.Unexport())
			}
		}()
	}

	reactor, err := mux.NewReactor()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, reactor.Close())
	}()

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range pins {
		g.Go(func() error {
			return watch(ctx, reactor, p, pub, log.With(zap.Int("pin", p.Number())))
		})
	}
	log.Info("started", zap.Ints("pins", cfg.pins), zap.Stringer("edge", cfg.edge))
	return g.Wait()
}

// watch publishes every value of p until ctx is done.
func watch(ctx context.Context, r *mux.Reactor, p sysfs.Pin, pub mqtt.Publisher, log *zap.Logger) (err error) {
	s, err := p.ValueStream(r)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()
	for {
		v, err := s.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		log.Debug("edge", zap.Uint8("value", v))
		ev := mqtt.PinEvent{Pin: p.Number(), Value: v, Timestamp: time.Now()}
		if err := pub.Publish(ev); err != nil {
			// Don't stop watching on publish failure.
			log.Warn("publish", zap.Error(err))
		}
	}
}
