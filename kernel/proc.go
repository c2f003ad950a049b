// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"fmt"
	"slices"
	"time"
	"weak"

	"rsc.io/rvkern/loader"
	"rsc.io/rvkern/mm"
	"rsc.io/rvkern/rv"
)

// A TaskStatus is the scheduling state of a task.
type TaskStatus uint32

const (
	Ready TaskStatus = iota
	Running
	Zombie
)

func (s TaskStatus) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Zombie:
		return "Zombie"
	}
	return fmt.Sprintf("TaskStatus(%d)", s)
}

// A TCB is the control block of one task.
//
// Only the kernel's single thread of control touches a TCB.
// Status changes go through the Manager while its state is borrowed.
type TCB struct {
	m      *Manager
	pid    int
	name   string
	kstack KernelStack
	ctx    *rv.Context
	space  *mm.MemorySet
	args   [3]uint64 // syscall arguments

	status   TaskStatus
	exitCode int32
	priority int64
	pass     uint64 // stride scheduling position

	parent   weak.Pointer[TCB]
	children []*TCB
	refs     int // registry entry plus parent's children list

	syscalls [MaxSyscallNum]uint32
	start    time.Duration
	time     time.Duration // running time, frozen at exit
}

// Identity and scheduling state of the task.
func (t *TCB) Pid() int                 { return t.pid }
func (t *TCB) Name() string             { return t.name }
func (t *TCB) Status() TaskStatus       { return t.status }
func (t *TCB) Priority() int64          { return t.priority }
func (t *TCB) ExitCode() int32          { return t.exitCode }
func (t *TCB) KernelStack() KernelStack { return t.kstack }

// Space returns the task's address space, which is nil once it has exited.
func (t *TCB) Space() *mm.MemorySet { return t.space }

// TrapFrame returns the saved user registers.
func (t *TCB) TrapFrame() *rv.TrapFrame { return t.space.TrapFrame() }

// Parent returns the task's parent, or nil if it has none.
func (t *TCB) Parent() *TCB { return t.parent.Value() }

// Children returns the task's unreaped children in creation order.
func (t *TCB) Children() []*TCB { return slices.Clone(t.children) }

// SyscallCount returns how many times the task has made system call num.
func (t *TCB) SyscallCount(num int) uint32 {
	if num < 0 || num >= MaxSyscallNum {
		return 0
	}
	return t.syscalls[num]
}

// Elapsed returns the time since the task was created,
// or its lifetime once it has exited.
func (t *TCB) Elapsed() time.Duration {
	if t.status == Zombie {
		return t.time
	}
	return t.m.clock.Now() - t.start
}

func (t *TCB) String() string {
	return fmt.Sprintf("%d (%s)", t.pid, t.name)
}

func (t *TCB) hold() { t.refs++ }

// release drops one reference and reports how many remain.
func (t *TCB) release() int {
	t.refs--
	if t.refs < 0 {
		panic(fmt.Sprintf("kernel: task %v released too often", t))
	}
	return t.refs
}

// newTCB wraps an address space whose trap frame is already set up.
func (m *Manager) newTCB(pid int, name string, space *mm.MemorySet) *TCB {
	t := &TCB{
		m:        m,
		pid:      pid,
		name:     name,
		kstack:   kernelStack(pid),
		space:    space,
		status:   Ready,
		priority: m.cfg.DefaultPriority,
		start:    m.clock.Now(),
	}
	t.ctx = rv.NewContext(t.kstack.Top, func() { m.run(t) })
	t.TrapFrame().KernelSp = t.kstack.Top
	return t
}

// initTrapFrame points the trap frame at a freshly loaded program.
func initTrapFrame(tf *rv.TrapFrame, entry, sp uint64, kstack KernelStack) {
	*tf = rv.TrapFrame{
		Sepc:        entry,
		KernelSatp:  kernelSatp,
		KernelSp:    kstack.Top,
		TrapHandler: trapHandler,
	}
	tf.X[rv.SP] = sp
}

// create builds a new task running img. The task belongs to nobody yet.
func (m *Manager) create(img *loader.Image) (*TCB, error) {
	space, sp, err := mm.FromImage(m.frames, img.Segments)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", img.Name, err)
	}
	pid := m.pids.Alloc()
	t := m.newTCB(pid, img.Name, space)
	initTrapFrame(t.TrapFrame(), img.Entry, sp, t.kstack)
	return t, nil
}

// fork returns a copy of parent with a new pid. The copy resumes
// from the same trap frame, except that its syscall result is 0.
func (m *Manager) fork(parent *TCB) (*TCB, error) {
	space, err := parent.space.Clone()
	if err != nil {
		return nil, err
	}
	c := m.newTCB(m.pids.Alloc(), parent.name, space)
	c.TrapFrame().SetReturn(0)
	parent.adopt(c)
	m.register(c)
	return c, nil
}

// exec replaces the program of t in place.
func (m *Manager) exec(t *TCB, img *loader.Image) error {
	space, sp, err := mm.FromImage(m.frames, img.Segments)
	if err != nil {
		return fmt.Errorf("%s: %w", img.Name, err)
	}
	t.space.Recycle()
	t.space = space
	t.name = img.Name
	initTrapFrame(t.TrapFrame(), img.Entry, sp, t.kstack)
	return nil
}

// spawn starts img as a new child of parent.
func (m *Manager) spawn(parent *TCB, img *loader.Image) (*TCB, error) {
	c, err := m.create(img)
	if err != nil {
		return nil, err
	}
	parent.adopt(c)
	m.register(c)
	return c, nil
}

func (t *TCB) adopt(c *TCB) {
	c.parent = weak.Make(t)
	c.hold()
	t.children = append(t.children, c)
}

// changeBrk moves the program break and returns the old one.
func (t *TCB) changeBrk(delta int64) (uint64, error) {
	return t.space.ChangeBrk(delta)
}
