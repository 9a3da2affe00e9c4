// Package debounce provides a single-slot delayed task scheduler.
//
// A Slot holds at most one pending task. Scheduling a new task replaces
// the pending one and restarts its delay. Tasks run one at a time on a
// worker goroutine owned by the slot, so two fired tasks never overlap.
package debounce

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned when a closed slot is used
var ErrClosed = errors.New("debounce slot is closed")

// Task is a unit of delayed work
type Task func()

type requestKind int

const (
	kindSchedule requestKind = iota
	kindCancel
	kindFlush
	kindClose
	kindState
)

type request struct {
	kind  requestKind
	task  Task
	delay time.Duration
	reply chan State
}

// State describes what the slot is doing
type State struct {
	Pending bool // a task is waiting for its delay
	Running bool // a task is executing or queued behind the running one
}

// Idle reports whether nothing is pending or running
func (s State) Idle() bool {
	return !s.Pending && !s.Running
}

// Slot is an actor that owns one delayed task
type Slot struct {
	requests  chan request
	done      chan struct{}
	closeOnce sync.Once
}

// New starts a slot
func New() *Slot {
	s := &Slot{
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// Schedule replaces any pending task with task, to run after delay
func (s *Slot) Schedule(task Task, delay time.Duration) error {
	if task == nil {
		return errors.New("debounce: nil task")
	}
	return s.send(request{kind: kindSchedule, task: task, delay: delay})
}

// Cancel drops the pending task, if any. A running task is not interrupted.
func (s *Slot) Cancel() error {
	return s.send(request{kind: kindCancel})
}

// Flush runs the pending task immediately and waits until the slot is idle
func (s *Slot) Flush() error {
	reply := make(chan State, 1)
	if err := s.send(request{kind: kindFlush, reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-s.done:
		return nil
	}
}

// State reports the current slot state
func (s *Slot) State() State {
	reply := make(chan State, 1)
	if err := s.send(request{kind: kindState, reply: reply}); err != nil {
		return State{}
	}
	select {
	case st := <-reply:
		return st
	case <-s.done:
		return State{}
	}
}

// Close flushes the pending task, waits for it, and stops the slot
func (s *Slot) Close() error {
	var err error
	s.closeOnce.Do(func() {
		reply := make(chan State, 1)
		if err = s.send(request{kind: kindClose, reply: reply}); err != nil {
			return
		}
		<-s.done
	})
	return err
}

func (s *Slot) send(req request) error {
	select {
	case s.requests <- req:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

func (s *Slot) loop() {
	defer close(s.done)

	var (
		pending Task
		timer   *time.Timer
		timerC  <-chan time.Time
		queued  Task
		running bool
		closing bool
		waiters []chan State
	)
	finished := make(chan struct{})

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timerC = nil
	}
	start := func(task Task) {
		running = true
		go func() {
			defer func() {
				recover()
				finished <- struct{}{}
			}()
			task()
		}()
	}
	fire := func(task Task) {
		if running {
			queued = task
			return
		}
		start(task)
	}
	state := func() State {
		return State{Pending: pending != nil, Running: running || queued != nil}
	}
	release := func() {
		for _, w := range waiters {
			w <- state()
		}
		waiters = nil
	}

	for {
		select {
		case req := <-s.requests:
			switch req.kind {
			case kindSchedule:
				if closing {
					continue
				}
				stopTimer()
				pending = req.task
				timer = time.NewTimer(req.delay)
				timerC = timer.C
			case kindCancel:
				stopTimer()
				pending = nil
			case kindFlush, kindClose:
				if pending != nil {
					stopTimer()
					task := pending
					pending = nil
					fire(task)
				}
				if req.kind == kindClose {
					closing = true
				}
				waiters = append(waiters, req.reply)
				if state().Idle() {
					release()
					if closing {
						return
					}
				}
			case kindState:
				req.reply <- state()
			}
		case <-timerC:
			timerC = nil
			task := pending
			pending = nil
			if task != nil {
				fire(task)
			}
		case <-finished:
			running = false
			if queued != nil {
				task := queued
				queued = nil
				start(task)
			}
			if state().Idle() {
				release()
				if closing {
					return
				}
			}
		}
	}
}
