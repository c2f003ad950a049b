// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv

import (
	"fmt"
	"math"
	"runtime"
)

// Step executes up to n instructions and returns how many completed.
// It stops early with ErrEcall when the program makes a system call,
// leaving Sepc at the ecall instruction, or with ErrInst or ErrMem when
// an instruction cannot complete. In every early stop the trap frame holds
// the state from before the stopping instruction.
func (cpu *CPU) Step(n int) (done int, err error) {
	tf := cpu.TF
	var old TrapFrame
	defer func() {
		if e := recover(); e != nil {
			*tf = old
			if _, ok := e.(runtime.Error); ok {
				panic(e)
			}
			if e1, ok := e.(error); ok {
				err = e1
			} else {
				err = fmt.Errorf("%v", e)
			}
		}
	}()

	for ; done < n; done++ {
		old = *tf
		pc := tf.Sepc
		if pc&3 != 0 {
			panic(&MemError{Addr: pc, Err: fmt.Errorf("misaligned fetch")})
		}
		w, err := cpu.Mem.Fetch(pc)
		if err != nil {
			panic(&MemError{Addr: pc, Err: err})
		}
		cpu.Inst = w
		tf.Sepc = pc + 4
		cpu.exec(w, pc)
		tf.X[0] = 0
	}
	return done, nil
}

func (cpu *CPU) exec(w uint32, pc uint64) {
	tf := cpu.TF
	x := &tf.X
	d, a, b := rd(w), x[rs1(w)], x[rs2(w)]
	f3 := funct3(w)

	switch w & 0x7f {
	default:
		panic(ErrInst)

	case opLui:
		x[d] = uint64(immU(w))

	case opAuipc:
		x[d] = pc + uint64(immU(w))

	case opJal:
		x[d] = pc + 4
		tf.Sepc = pc + uint64(immJ(w))

	case opJalr:
		if f3 != 0 {
			panic(ErrInst)
		}
		target := (a + uint64(immI(w))) &^ 1
		x[d] = pc + 4
		tf.Sepc = target

	case opBranch:
		var taken bool
		switch f3 {
		default:
			panic(ErrInst)
		case 0:
			taken = a == b
		case 1:
			taken = a != b
		case 4:
			taken = int64(a) < int64(b)
		case 5:
			taken = int64(a) >= int64(b)
		case 6:
			taken = a < b
		case 7:
			taken = a >= b
		}
		if taken {
			tf.Sepc = pc + uint64(immB(w))
		}

	case opLoad:
		addr := a + uint64(immI(w))
		switch f3 {
		default:
			panic(ErrInst)
		case 0:
			x[d] = uint64(int8(cpu.load(addr, 1)))
		case 1:
			x[d] = uint64(int16(cpu.load(addr, 2)))
		case 2:
			x[d] = uint64(int32(cpu.load(addr, 4)))
		case 3:
			x[d] = cpu.load(addr, 8)
		case 4:
			x[d] = cpu.load(addr, 1)
		case 5:
			x[d] = cpu.load(addr, 2)
		case 6:
			x[d] = cpu.load(addr, 4)
		}

	case opStore:
		if f3 > 3 {
			panic(ErrInst)
		}
		addr := a + uint64(immS(w))
		cpu.store(addr, 1<<f3, b)

	case opImm:
		imm := immI(w)
		switch f3 {
		case 0:
			x[d] = a + uint64(imm)
		case 1:
			if w>>26 != 0 {
				panic(ErrInst)
			}
			x[d] = a << (imm & 63)
		case 2:
			x[d] = b2u(int64(a) < imm)
		case 3:
			x[d] = b2u(a < uint64(imm))
		case 4:
			x[d] = a ^ uint64(imm)
		case 5:
			switch w >> 26 {
			default:
				panic(ErrInst)
			case 0:
				x[d] = a >> (imm & 63)
			case 0x10:
				x[d] = uint64(int64(a) >> (imm & 63))
			}
		case 6:
			x[d] = a | uint64(imm)
		case 7:
			x[d] = a & uint64(imm)
		}

	case opImm32:
		imm := immI(w)
		shamt := imm & 31
		switch {
		default:
			panic(ErrInst)
		case f3 == 0:
			x[d] = sext32(uint32(a) + uint32(imm))
		case f3 == 1 && w>>25 == 0:
			x[d] = sext32(uint32(a) << shamt)
		case f3 == 5 && w>>25 == 0:
			x[d] = sext32(uint32(a) >> shamt)
		case f3 == 5 && w>>25 == 0x20:
			x[d] = uint64(int64(int32(a) >> shamt))
		}

	case opReg:
		switch w >> 25 {
		default:
			panic(ErrInst)
		case 0:
			switch f3 {
			case 0:
				x[d] = a + b
			case 1:
				x[d] = a << (b & 63)
			case 2:
				x[d] = b2u(int64(a) < int64(b))
			case 3:
				x[d] = b2u(a < b)
			case 4:
				x[d] = a ^ b
			case 5:
				x[d] = a >> (b & 63)
			case 6:
				x[d] = a | b
			case 7:
				x[d] = a & b
			}
		case 0x20:
			switch f3 {
			default:
				panic(ErrInst)
			case 0:
				x[d] = a - b
			case 5:
				x[d] = uint64(int64(a) >> (b & 63))
			}
		case 0x01:
			switch f3 {
			default:
				panic(ErrInst)
			case 0:
				x[d] = a * b
			case 4:
				x[d] = uint64(div(int64(a), int64(b)))
			case 5:
				if b == 0 {
					x[d] = math.MaxUint64
				} else {
					x[d] = a / b
				}
			case 6:
				x[d] = uint64(rem(int64(a), int64(b)))
			case 7:
				if b == 0 {
					x[d] = a
				} else {
					x[d] = a % b
				}
			}
		}

	case opReg32:
		switch {
		default:
			panic(ErrInst)
		case f3 == 0 && w>>25 == 0:
			x[d] = sext32(uint32(a) + uint32(b))
		case f3 == 0 && w>>25 == 0x20:
			x[d] = sext32(uint32(a) - uint32(b))
		case f3 == 0 && w>>25 == 0x01:
			x[d] = sext32(uint32(a) * uint32(b))
		case f3 == 1 && w>>25 == 0:
			x[d] = sext32(uint32(a) << (b & 31))
		case f3 == 5 && w>>25 == 0:
			x[d] = sext32(uint32(a) >> (b & 31))
		case f3 == 5 && w>>25 == 0x20:
			x[d] = uint64(int64(int32(a) >> (b & 31)))
		}

	case opSystem:
		if w != 0x00000073 {
			panic(ErrInst)
		}
		panic(ErrEcall)
	}
}

func (cpu *CPU) load(addr uint64, size int) uint64 {
	v, err := cpu.Mem.Load(addr, size)
	if err != nil {
		panic(&MemError{Addr: addr, Err: err})
	}
	return v
}

func (cpu *CPU) store(addr uint64, size int, val uint64) {
	if err := cpu.Mem.Store(addr, size, val); err != nil {
		panic(&MemError{Addr: addr, Err: err})
	}
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func sext32(v uint32) uint64 { return uint64(int64(int32(v))) }

func div(a, b int64) int64 {
	switch {
	case b == 0:
		return -1
	case a == math.MinInt64 && b == -1:
		return a
	}
	return a / b
}

func rem(a, b int64) int64 {
	switch {
	case b == 0:
		return a
	case a == math.MinInt64 && b == -1:
		return 0
	}
	return a % b
}
