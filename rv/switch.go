// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv

import "runtime"

// A Context is the saved kernel execution state of one task.
// Only a Switcher looks inside it.
type Context struct {
	SP uint64 // top of the kernel stack the context runs on

	start   func()
	started bool
	wake    chan struct{}
}

// NewContext returns a context that begins running start on its first
// resumption. A nil start describes a context that is already running,
// such as the boot context that first switches into a task.
func NewContext(sp uint64, start func()) *Context {
	return &Context{
		SP:      sp,
		start:   start,
		started: start == nil,
		wake:    make(chan struct{}),
	}
}

// A Switcher saves the running context into cur and resumes next.
//
// Switch does not return to its caller until some later Switch resumes
// cur. A nil cur abandons the running context: it is never resumed.
type Switcher interface {
	Switch(cur, next *Context)
}

// Goroutines is a Switcher in which every context is a goroutine and
// exactly one of them runs at a time. The processor is handed over
// through each context's wake channel.
type Goroutines struct{}

func (Goroutines) Switch(cur, next *Context) {
	if next.wake == nil {
		panic("rv: switch to zero Context")
	}
	if !next.started {
		next.started = true
		go func() {
			next.start()
			panic("rv: context start function returned")
		}()
	} else {
		next.wake <- struct{}{}
	}
	if cur == nil {
		runtime.Goexit()
	}
	<-cur.wake
}

// Inline is a Switcher that only records the transfer and returns at
// once; the caller then carries on as next. It lets a test act as the
// trap layer for whichever task is current.
type Inline struct {
	Switches int
	Last     *Context
}

func (s *Inline) Switch(cur, next *Context) {
	s.Switches++
	s.Last = next
}
