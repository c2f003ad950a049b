// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernel is the process core of a small RISC-V teaching kernel:
// task control blocks, the task manager and its scheduler, and the
// process and memory system calls.
//
// A Manager runs on a single simulated core. Exactly one task is Running
// at a time, and control moves between tasks only when a task yields,
// exits, or is preempted by the timer, through an rv.Switcher.
package kernel

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"
	"weak"

	"rsc.io/rvkern/loader"
	"rsc.io/rvkern/mm"
	"rsc.io/rvkern/rv"
)

// Config configures a Manager. Zero fields take their defaults.
type Config struct {
	Apps     *loader.Archive // applications for boot, exec and spawn
	Switcher rv.Switcher     // default rv.Goroutines
	Policy   Policy          // default Stride{BigStride}
	Clock    Clock           // default wall clock
	Console  io.Writer       // output of write to fd 1 and 2
	Logger   *slog.Logger    // default discards

	DefaultPriority int64
	Quantum         int  // instructions per timer tick
	Frames          int  // physical memory in pages
	Trace           bool // log every instruction
}

// An Exit records how a task ended.
type Exit struct {
	Pid  int
	Name string
	Code int32
	Time time.Duration
}

// A Manager owns every task and the processor they share.
type Manager struct {
	cfg     Config
	log     *slog.Logger
	sw      rv.Switcher
	policy  Policy
	clock   Clock
	console io.Writer
	frames  *mm.FrameAllocator
	pids    PidAllocator

	inner Cell[state]
	idle  *rv.Context
}

// state is the scheduling state shared by all tasks.
type state struct {
	tasks   []*TCB // Ready and Running tasks in scheduling order
	current *TCB
	root    *TCB // first boot task while it lives; it adopts orphans
	pos     int // index of current in tasks
	halted  bool
	exits   []Exit
}

// New returns a Manager with no tasks.
func New(cfg Config) *Manager {
	if cfg.Apps == nil {
		cfg.Apps = loader.Default()
	}
	if cfg.Switcher == nil {
		cfg.Switcher = rv.Goroutines{}
	}
	if cfg.Policy == nil {
		cfg.Policy = Stride{BigStride: BigStride}
	}
	if cfg.Clock == nil {
		cfg.Clock = wallClock{time.Now()}
	}
	if cfg.Console == nil {
		cfg.Console = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.DefaultPriority == 0 {
		cfg.DefaultPriority = DefaultPriority
	}
	if cfg.DefaultPriority < MinPriority {
		panic(fmt.Sprintf("kernel: default priority %d below %d", cfg.DefaultPriority, MinPriority))
	}
	if cfg.Quantum <= 0 {
		cfg.Quantum = Quantum
	}
	if cfg.Frames <= 0 {
		cfg.Frames = Frames
	}
	return &Manager{
		cfg:     cfg,
		log:     cfg.Logger,
		sw:      cfg.Switcher,
		policy:  cfg.Policy,
		clock:   cfg.Clock,
		console: cfg.Console,
		frames:  mm.NewFrameAllocator(cfg.Frames),
		idle:    rv.NewContext(0, nil),
	}
}

// Frames returns the physical frame allocator.
func (m *Manager) Frames() *mm.FrameAllocator { return m.frames }

// Boot creates a parentless task for each named application.
func (m *Manager) Boot(names ...string) error {
	for _, name := range names {
		img, ok := m.cfg.Apps.Lookup(name)
		if !ok {
			return fmt.Errorf("boot: no app %q", name)
		}
		t, err := m.create(img)
		if err != nil {
			return fmt.Errorf("boot: %w", err)
		}
		m.register(t)
		g := m.inner.Borrow()
		if s := g.Get(); s.root == nil && len(s.exits) == 0 {
			s.root = t
		}
		g.Release()
		m.log.Info("boot", "pid", t.pid, "app", name)
	}
	return nil
}

// register adds a new Ready task to the end of the scheduling order.
func (m *Manager) register(t *TCB) {
	g := m.inner.Borrow()
	s := g.Get()
	m.policy.Admit(s.tasks, t)
	s.tasks = append(s.tasks, t)
	t.hold()
	g.Release()
}

// Start gives the processor to the first Ready task. With a switcher
// that hands over the processor, Start returns once every task has
// exited; with rv.Inline it returns at once and the caller acts on
// behalf of Current.
func (m *Manager) Start() {
	g := m.inner.Borrow()
	s := g.Get()
	if s.current != nil {
		panic("kernel: Start with a task running")
	}
	next := m.pick(s, len(s.tasks)-1)
	if next == nil {
		m.halt(s)
		g.Release()
		return
	}
	m.switchTo(g, m.idle, next.ctx)
}

// pick marks the next Ready task Running and makes it current.
// It returns nil if no task is Ready.
func (m *Manager) pick(s *state, last int) *TCB {
	i := m.policy.Pick(s.tasks, last)
	if i < 0 {
		return nil
	}
	t := s.tasks[i]
	if t.status != Ready {
		panic(fmt.Sprintf("kernel: picked %v task %v", t.status, t))
	}
	t.status = Running
	s.current = t
	s.pos = i
	m.policy.Dispatched(t)
	return t
}

// switchTo ends the borrow g and then switches from cur to next.
// The borrow must end first: the switch does not come back here
// until some other task switches to cur, and that task needs the
// manager state.
func (m *Manager) switchTo(g *Guard[state], cur, next *rv.Context) {
	g.Release()
	if m.inner.Borrowed() {
		panic("kernel: context switch with manager state borrowed")
	}
	m.sw.Switch(cur, next)
}

// Current returns the running task, or nil.
func (m *Manager) Current() *TCB {
	g := m.inner.Borrow()
	defer g.Release()
	return g.Get().current
}

// Suspend moves the current task from Running to Ready and runs
// the next task. It serves both yield and the timer.
func (m *Manager) Suspend() {
	g := m.inner.Borrow()
	s := g.Get()
	t := s.current
	if t == nil || t.status != Running {
		panic("kernel: suspend without a running task")
	}
	t.status = Ready
	next := m.pick(s, s.pos)
	if next == t {
		g.Release()
		return
	}
	m.switchTo(g, t.ctx, next.ctx)
}

// Exit ends the current task with the given code and runs the next
// task. Under a switcher that hands over the processor it does not return.
func (m *Manager) Exit(code int32) {
	g := m.inner.Borrow()
	s := g.Get()
	t := s.current
	if t == nil || t.status != Running {
		panic("kernel: exit without a running task")
	}
	t.status = Zombie
	t.exitCode = code
	t.time = m.clock.Now() - t.start
	s.exits = append(s.exits, Exit{t.pid, t.name, code, t.time})
	m.log.Info("exit", "pid", t.pid, "app", t.name, "code", code)

	s.tasks = slices.Delete(s.tasks, s.pos, s.pos+1)
	s.current = nil
	t.space.Recycle()
	t.space = nil

	// Children pass to the root task, which reaps them like its own.
	// Once the root is gone, zombie children have nobody left to reap
	// them and the others are destroyed when they exit.
	if s.root == t {
		s.root = nil
	}
	for _, c := range t.children {
		if s.root != nil {
			c.parent = weak.Make(s.root)
			s.root.children = append(s.root.children, c)
			continue
		}
		c.parent = weak.Pointer[TCB]{}
		if c.release() == 0 {
			m.destroy(c)
		}
	}
	t.children = nil
	if t.release() == 0 {
		m.destroy(t)
	}

	next := m.pick(s, s.pos-1)
	if next == nil {
		m.halt(s)
		m.switchTo(g, nil, m.idle)
		return
	}
	m.switchTo(g, nil, next.ctx)
}

// destroy releases what a task keeps after exiting.
func (m *Manager) destroy(t *TCB) {
	if t.refs != 0 || t.status != Zombie {
		panic(fmt.Sprintf("kernel: destroy of live task %v", t))
	}
	m.pids.Free(t.pid)
	m.log.Debug("destroy", "pid", t.pid)
}

func (m *Manager) halt(s *state) {
	s.halted = true
	m.log.Info("all applications completed", "exits", len(s.exits))
}

// Halted reports whether every task has exited.
func (m *Manager) Halted() bool {
	g := m.inner.Borrow()
	defer g.Release()
	return g.Get().halted
}

// Exits returns the tasks that have exited, in order.
func (m *Manager) Exits() []Exit {
	g := m.inner.Borrow()
	defer g.Release()
	return slices.Clone(g.Get().exits)
}

// Tasks returns the Ready and Running tasks in scheduling order.
func (m *Manager) Tasks() []*TCB {
	g := m.inner.Borrow()
	defer g.Release()
	return slices.Clone(g.Get().tasks)
}
