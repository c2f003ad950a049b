// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rsc.io/rvkern/rv"
)

func TestCell(t *testing.T) {
	var c Cell[int]
	g := c.Borrow()
	require.True(t, c.Borrowed())
	*g.Get() = 42
	require.PanicsWithValue(t, "kernel: cell already borrowed", func() { c.Borrow() })
	g.Release()
	require.False(t, c.Borrowed())
	require.Panics(t, func() { g.Release() })
	require.Panics(t, func() { g.Get() })

	g = c.Borrow()
	require.Equal(t, 42, *g.Get())
	g.Release()
}

// spySwitcher looks at the manager from inside every switch,
// as the next task's kernel thread would.
type spySwitcher struct {
	m        *Manager
	borrowed bool
	current  []*TCB
}

func (s *spySwitcher) Switch(cur, next *rv.Context) {
	s.borrowed = s.borrowed || s.m.inner.Borrowed()
	s.current = append(s.current, s.m.Current())
}

func TestSwitchReleasesState(t *testing.T) {
	spy := &spySwitcher{}
	m := New(Config{Switcher: spy, Clock: &FakeClock{}})
	spy.m = m
	require.NoError(t, m.Boot("hello", "hello"))
	m.Start()
	a := m.Current()
	m.Suspend()
	b := m.Current()
	require.NotEqual(t, a.Pid(), b.Pid())
	m.Exit(0)
	m.Exit(0)
	require.True(t, m.Halted())

	require.False(t, spy.borrowed)
	require.Len(t, spy.current, 4)
	require.Equal(t, []*TCB{a, b, a, nil}, spy.current)
}

func TestPidAllocator(t *testing.T) {
	var a PidAllocator
	require.Equal(t, 0, a.Alloc())
	require.Equal(t, 1, a.Alloc())
	require.Equal(t, 2, a.Alloc())
	a.Free(1)
	require.Panics(t, func() { a.Free(1) })
	require.Panics(t, func() { a.Free(7) })
	require.Equal(t, 1, a.Alloc())
	require.Equal(t, 3, a.Alloc())
}

func TestKernelStacksDisjoint(t *testing.T) {
	prev := kernelStack(0)
	for pid := 1; pid < 64; pid++ {
		ks := kernelStack(pid)
		require.Less(t, ks.Bottom, ks.Top)
		require.Less(t, ks.Top, prev.Bottom, "pid %d stack must sit below pid %d's guard page", pid, pid-1)
		prev = ks
	}
}
