// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"errors"
	"fmt"
	"log/slog"

	"rsc.io/rvkern/rv"
)

// run is the kernel thread of t. It executes t in user mode one timer
// tick at a time and handles whatever stops it. It never returns:
// the task's final Exit abandons it.
func (m *Manager) run(t *TCB) {
	for {
		// Exec replaces the address space, so look it up every time.
		cpu := &rv.CPU{TF: t.TrapFrame(), Mem: t.space}
		_, err := m.step(t, cpu, m.cfg.Quantum)
		switch {
		case err == nil:
			m.Suspend() // timer
		case errors.Is(err, rv.ErrEcall):
			cpu.TF.Sepc += 4
			m.Trap(t)
		case errors.Is(err, rv.ErrMem):
			m.log.Warn("memory fault, task killed", "pid", t.pid, "app", t.name, "pc", hex(cpu.TF.Sepc), "err", err)
			m.Exit(ExitFault)
		case errors.Is(err, rv.ErrInst):
			m.log.Warn("illegal instruction, task killed", "pid", t.pid, "app", t.name, "pc", hex(cpu.TF.Sepc), "inst", hex(uint64(cpu.Inst)))
			m.Exit(ExitIllegal)
		default:
			panic(fmt.Sprintf("kernel: pid %d: %v", t.pid, err))
		}
	}
}

// step runs up to n instructions, logging each one when tracing.
func (m *Manager) step(t *TCB, cpu *rv.CPU, n int) (int, error) {
	if !m.cfg.Trace {
		return cpu.Step(n)
	}
	for i := range n {
		pc := cpu.TF.Sepc
		text := "???"
		if w, err := cpu.Mem.Fetch(pc); err == nil {
			if s, err := rv.Disasm(pc, w); err == nil {
				text = s
			}
		}
		m.log.Debug("step", "pid", t.pid, "pc", hex(pc), "inst", text)
		if _, err := cpu.Step(1); err != nil {
			return i, err
		}
	}
	return n, nil
}

// hex logs an address in hexadecimal.
type hex uint64

func (h hex) LogValue() slog.Value { return slog.StringValue(fmt.Sprintf("%#x", uint64(h))) }
