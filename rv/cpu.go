// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rv simulates the parts of a single RV64 hart that a teaching
// kernel touches: the user-mode integer instruction set, the trap frame
// saved on entry to the kernel, and the kernel context switch.
package rv

import (
	"errors"
	"fmt"
)

// A TrapFrame is the user register image saved when a task traps into the
// kernel. The kernel keeps it in the task's trap-frame page.
type TrapFrame struct {
	X           [32]uint64 // general registers; X[0] is ignored
	Sstatus     uint64
	Sepc        uint64 // user program counter
	KernelSatp  uint64 // kernel page table token
	KernelSp    uint64 // top of the task's kernel stack
	TrapHandler uint64
}

// SetReturn stores a syscall return value in a0.
func (tf *TrapFrame) SetReturn(v int64) { tf.X[A0] = uint64(v) }

// A CPU executes user instructions against a trap frame.
// The program counter is tf.Sepc.
type CPU struct {
	TF   *TrapFrame
	Mem  Memory
	Inst uint32 // instruction being executed
}

var (
	ErrEcall = errors.New("environment call")
	ErrInst  = errors.New("illegal instruction")
	ErrMem   = errors.New("invalid memory access")
)

// A Memory is the user view of an address space.
// Every access is checked against the mapping's permissions.
type Memory interface {
	Fetch(addr uint64) (uint32, error)
	Load(addr uint64, size int) (uint64, error)
	Store(addr uint64, size int, val uint64) error
}

// A RegNum is a register number (0..31).
type RegNum uint8

const (
	Zero RegNum = 0
	RA   RegNum = 1
	SP   RegNum = 2
	GP   RegNum = 3
	TP   RegNum = 4
	T0   RegNum = 5
	S0   RegNum = 8
	A0   RegNum = 10
	A1   RegNum = 11
	A2   RegNum = 12
	A7   RegNum = 17
)

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// String returns the ABI name of r.
func (r RegNum) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return fmt.Sprintf("x%d", r)
}

// A MemError records the address of a failed access.
type MemError struct {
	Addr uint64
	Err  error
}

func (e *MemError) Error() string { return fmt.Sprintf("%v at %#x: %v", ErrMem, e.Addr, e.Err) }

func (e *MemError) Unwrap() []error { return []error{ErrMem, e.Err} }
