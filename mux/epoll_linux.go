// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mux

import (
	"errors"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Poll is an epoll instance.
//
// Register, Reregister and Deregister may be called while another goroutine
// is blocked in Wait. Close waits for an in-flight Wait to return.
type Poll struct {
	mu sync.RWMutex
	fd int
}

// New creates an epoll instance.
func New() (*Poll, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	return &Poll{fd: fd}, nil
}

// Fd returns the epoll descriptor, or -1 once closed.
func (p *Poll) Fd() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fd
}

// Register implements Registry.
func (p *Poll) Register(fd int, token Token, interest Interest, mode Mode) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, token, interest, mode)
}

// Reregister implements Registry.
func (p *Poll) Reregister(fd int, token Token, interest Interest, mode Mode) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, token, interest, mode)
}

// Deregister implements Registry.
func (p *Poll) Deregister(fd int) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.fd < 0 {
		return ErrClosed
	}
	// Kernels before 2.6.9 require a non-nil event even for EPOLL_CTL_DEL.
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, &unix.EpollEvent{}); err != nil {
		return os.NewSyscallError("epoll_ctl", err)
	}
	return nil
}

func (p *Poll) ctl(op, fd int, token Token, interest Interest, mode Mode) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.fd < 0 {
		return ErrClosed
	}
	ev := unix.EpollEvent{Events: epollEvents(interest, mode), Fd: int32(token)}
	if err := unix.EpollCtl(p.fd, op, fd, &ev); err != nil {
		return os.NewSyscallError("epoll_ctl", err)
	}
	return nil
}

// Wait blocks up to timeout for events and stores them in events.
//
// It returns the number of events stored; 0 means the timeout expired. A
// negative timeout (Infinite) waits forever. The wait resumes with the
// remaining time when interrupted by a signal.
func (p *Poll) Wait(events []Event, timeout time.Duration) (int, error) {
	if len(events) == 0 {
		return 0, errors.New("mux: Wait needs room for at least one event")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.fd < 0 {
		return 0, ErrClosed
	}
	// Wait may be called from several goroutines; each gets its own buffer.
	raw := make([]unix.EpollEvent, len(events))
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	ms := millis(timeout)
	for {
		n, err := unix.EpollWait(p.fd, raw, ms)
		if err == unix.EINTR {
			// A signal occurred.
			if timeout < 0 {
				continue
			}
			remaining := time.Until(deadline)
			if timeout == 0 || remaining <= 0 {
				return 0, nil
			}
			ms = millis(remaining)
			continue
		}
		if err != nil {
			return 0, os.NewSyscallError("epoll_wait", err)
		}
		for i := 0; i < n; i++ {
			events[i] = fromEpoll(&raw[i])
		}
		return n, nil
	}
}

// Close releases the epoll instance. Closing twice returns ErrClosed.
func (p *Poll) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fd < 0 {
		return ErrClosed
	}
	fd := p.fd
	p.fd = -1
	if err := unix.Close(fd); err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}

func epollEvents(interest Interest, mode Mode) uint32 {
	var ev uint32
	if interest&Readable != 0 {
		ev |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest&Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	if interest&Priority != 0 {
		ev |= unix.EPOLLPRI
	}
	switch mode {
	case Edge:
		ev |= unix.EPOLLET
	case Oneshot:
		ev |= unix.EPOLLONESHOT
	}
	return ev
}

func fromEpoll(raw *unix.EpollEvent) Event {
	ev := Event{Token: Token(uint32(raw.Fd))}
	if raw.Events&unix.EPOLLIN != 0 {
		ev.Ready |= Readable
	}
	if raw.Events&unix.EPOLLOUT != 0 {
		ev.Ready |= Writable
	}
	if raw.Events&unix.EPOLLPRI != 0 {
		ev.Ready |= Priority
	}
	ev.Error = raw.Events&unix.EPOLLERR != 0
	ev.Hangup = raw.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0
	return ev
}

// Notifier wakes a Poll from another goroutine. It is backed by an eventfd.
type Notifier struct {
	mu sync.Mutex
	fd int
}

// NewNotifier creates a notifier registered with p under token.
func NewNotifier(p *Poll, token Token) (*Notifier, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("eventfd", err)
	}
	if err := p.Register(fd, token, Readable, Level); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &Notifier{fd: fd}, nil
}

// Notify makes the next or in-flight Wait on the Poll return an event.
func (n *Notifier) Notify() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fd < 0 {
		return ErrClosed
	}
	var one = [8]byte{1}
	if _, err := unix.Write(n.fd, one[:]); err != nil && err != unix.EAGAIN {
		return os.NewSyscallError("write", err)
	}
	return nil
}

// Drain resets the notifier so that a level triggered Poll stops reporting it.
func (n *Notifier) Drain() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fd < 0 {
		return
	}
	var buf [8]byte
	_, _ = unix.Read(n.fd, buf[:])
}

// Close releases the eventfd.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fd < 0 {
		return ErrClosed
	}
	fd := n.fd
	n.fd = -1
	return unix.Close(fd)
}

var _ Registry = &Poll{}
