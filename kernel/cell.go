// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import "sync/atomic"

// A Cell gives one holder at a time exclusive access to a value.
// Borrowing a cell that is already borrowed is a fatal error,
// not a wait: on a single core it can only mean a missed release.
type Cell[T any] struct {
	busy atomic.Bool
	v    T
}

// A Guard is an outstanding borrow of a Cell.
type Guard[T any] struct {
	c *Cell[T]
}

// Borrow takes exclusive access to the value.
func (c *Cell[T]) Borrow() *Guard[T] {
	if !c.busy.CompareAndSwap(false, true) {
		panic("kernel: cell already borrowed")
	}
	return &Guard[T]{c}
}

// Borrowed reports whether a guard is outstanding.
func (c *Cell[T]) Borrowed() bool { return c.busy.Load() }

// Get returns the guarded value. It is valid until Release.
func (g *Guard[T]) Get() *T {
	if g.c == nil {
		panic("kernel: use of released guard")
	}
	return &g.c.v
}

// Release ends the borrow.
func (g *Guard[T]) Release() {
	if g.c == nil {
		panic("kernel: guard released twice")
	}
	g.c.busy.Store(false)
	g.c = nil
}
