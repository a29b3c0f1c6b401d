// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mux

import (
	"sync"

	"go.uber.org/multierr"
)

// notifyToken is reserved for the reactor's own Notifier.
const notifyToken Token = 0

// maxEvents is the number of events fetched per Wait.
const maxEvents = 64

// Reactor runs a Poll on a background goroutine and dispatches readiness to
// Registrations.
//
// Sources are registered in Edge mode: a Registration sees one event per
// readiness change, and it is up to the consumer to call ClearReady once the
// event was handled.
type Reactor struct {
	poll   *Poll
	notify *Notifier
	done   chan struct{}

	mu     sync.Mutex
	regs   map[Token]*Registration
	next   Token
	closed bool
}

// NewReactor creates the Poll and starts the dispatch goroutine.
func NewReactor() (*Reactor, error) {
	p, err := New()
	if err != nil {
		return nil, err
	}
	n, err := NewNotifier(p, notifyToken)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	r := &Reactor{
		poll:   p,
		notify: n,
		done:   make(chan struct{}),
		regs:   map[Token]*Registration{},
		next:   notifyToken + 1,
	}
	go r.run()
	return r, nil
}

// Register registers src for interest and returns its Registration.
func (r *Reactor) Register(src Source, interest Interest) (*Registration, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	token := r.next
	r.next++
	if r.next == notifyToken {
		r.next++
	}
	reg := &Registration{reactor: r, token: token, src: src}
	// Insert before registering; the first event may arrive immediately.
	r.regs[token] = reg
	r.mu.Unlock()

	if err := src.Register(r.poll, token, interest, Edge); err != nil {
		r.forget(token)
		return nil, err
	}
	return reg, nil
}

// Close stops the dispatch goroutine and releases the Poll. Registrations
// still alive report ErrClosed afterward.
func (r *Reactor) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	// The dispatch goroutine must be out of Wait before the Poll can close.
	if err := r.notify.Notify(); err != nil {
		return err
	}
	<-r.done
	r.fail(ErrClosed)
	return multierr.Combine(r.notify.Close(), r.poll.Close())
}

func (r *Reactor) run() {
	defer close(r.done)
	events := make([]Event, maxEvents)
	for {
		n, err := r.poll.Wait(events, Infinite)
		if err != nil {
			r.fail(err)
			return
		}
		for _, ev := range events[:n] {
			if ev.Token == notifyToken {
				r.notify.Drain()
				r.mu.Lock()
				closed := r.closed
				r.mu.Unlock()
				if closed {
					return
				}
				continue
			}
			r.mu.Lock()
			reg := r.regs[ev.Token]
			r.mu.Unlock()
			if reg != nil {
				reg.dispatch(ev)
			}
		}
	}
}

// fail makes every live registration report err.
func (r *Reactor) fail(err error) {
	r.mu.Lock()
	regs := make([]*Registration, 0, len(r.regs))
	for _, reg := range r.regs {
		regs = append(regs, reg)
	}
	r.mu.Unlock()
	for _, reg := range regs {
		reg.abort(err)
	}
}

func (r *Reactor) forget(token Token) {
	r.mu.Lock()
	delete(r.regs, token)
	r.mu.Unlock()
}

// Registration is a Source registered with a Reactor.
//
// It caches readiness until ClearReady is called, which is how the consumer
// re-arms interest after handling an event.
type Registration struct {
	reactor *Reactor
	token   Token
	src     Source

	mu     sync.Mutex
	ready  bool
	tick   uint64 // incremented by every dispatched event
	seen   uint64 // tick observed by the last PollReady that reported ready
	waker  Waker
	err    error
	closed bool
}

// Token returns the token the source was registered under.
func (g *Registration) Token() Token {
	return g.token
}

// PollReady reports whether the source became ready since the last
// ClearReady. When it did not, w is woken on the next event.
func (g *Registration) PollReady(w Waker) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false, ErrClosed
	}
	if g.err != nil {
		return false, g.err
	}
	if g.ready {
		g.seen = g.tick
		return true, nil
	}
	g.waker = w
	return false, nil
}

// ClearReady discards the readiness reported by the last PollReady and arms
// w for the next event.
//
// An event dispatched after that PollReady is kept: the source stays ready
// and w is woken right away.
func (g *Registration) ClearReady(w Waker) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	if g.err != nil {
		err := g.err
		g.mu.Unlock()
		return err
	}
	if g.tick != g.seen {
		g.mu.Unlock()
		if w != nil {
			w.Wake()
		}
		return nil
	}
	g.ready = false
	g.waker = w
	g.mu.Unlock()
	return nil
}

// Deregister removes the source from the reactor. It is safe to call more
// than once; only the first call deregisters.
func (g *Registration) Deregister() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	w := g.waker
	g.waker = nil
	g.mu.Unlock()

	g.reactor.forget(g.token)
	err := g.src.Deregister(g.reactor.poll)
	if err == ErrClosed {
		// The reactor is gone and took the registration with it.
		err = nil
	}
	if w != nil {
		w.Wake()
	}
	return err
}

func (g *Registration) dispatch(ev Event) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.ready = true
	g.tick++
	w := g.waker
	g.waker = nil
	g.mu.Unlock()
	if w != nil {
		w.Wake()
	}
}

func (g *Registration) abort(err error) {
	g.mu.Lock()
	if g.err == nil {
		g.err = err
	}
	w := g.waker
	g.waker = nil
	g.mu.Unlock()
	if w != nil {
		w.Wake()
	}
}
