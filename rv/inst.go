// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv

type format uint8

const (
	fmtR    format = iota // op rd, rs1, rs2
	fmtI                  // op rd, rs1, imm
	fmtSh                 // op rd, rs1, shamt (6-bit)
	fmtShW                // op rd, rs1, shamt (5-bit)
	fmtL                  // op rd, imm(rs1)
	fmtS                  // op rs2, imm(rs1)
	fmtB                  // op rs1, rs2, target
	fmtU                  // op rd, imm20
	fmtJ                  // op rd, target
	fmtJALR               // op rd, imm(rs1)
	fmtSys                // op
)

type instr struct {
	name   string
	format format
	opcode uint32
	f3     uint32
	hi     uint32 // bits above rs2 (funct7, funct6) already in place
}

const (
	opLoad   = 0x03
	opImm    = 0x13
	opAuipc  = 0x17
	opImm32  = 0x1b
	opStore  = 0x23
	opReg    = 0x33
	opLui    = 0x37
	opReg32  = 0x3b
	opBranch = 0x63
	opJalr   = 0x67
	opJal    = 0x6f
	opSystem = 0x73

	hiAlt = 0x20 << 25 // sub, sra, srai
	hiMul = 0x01 << 25
)

var itab = []instr{
	{"lui", fmtU, opLui, 0, 0},
	{"auipc", fmtU, opAuipc, 0, 0},
	{"jal", fmtJ, opJal, 0, 0},
	{"jalr", fmtJALR, opJalr, 0, 0},
	{"beq", fmtB, opBranch, 0, 0},
	{"bne", fmtB, opBranch, 1, 0},
	{"blt", fmtB, opBranch, 4, 0},
	{"bge", fmtB, opBranch, 5, 0},
	{"bltu", fmtB, opBranch, 6, 0},
	{"bgeu", fmtB, opBranch, 7, 0},
	{"lb", fmtL, opLoad, 0, 0},
	{"lh", fmtL, opLoad, 1, 0},
	{"lw", fmtL, opLoad, 2, 0},
	{"ld", fmtL, opLoad, 3, 0},
	{"lbu", fmtL, opLoad, 4, 0},
	{"lhu", fmtL, opLoad, 5, 0},
	{"lwu", fmtL, opLoad, 6, 0},
	{"sb", fmtS, opStore, 0, 0},
	{"sh", fmtS, opStore, 1, 0},
	{"sw", fmtS, opStore, 2, 0},
	{"sd", fmtS, opStore, 3, 0},
	{"addi", fmtI, opImm, 0, 0},
	{"slli", fmtSh, opImm, 1, 0},
	{"slti", fmtI, opImm, 2, 0},
	{"sltiu", fmtI, opImm, 3, 0},
	{"xori", fmtI, opImm, 4, 0},
	{"srli", fmtSh, opImm, 5, 0},
	{"srai", fmtSh, opImm, 5, hiAlt},
	{"ori", fmtI, opImm, 6, 0},
	{"andi", fmtI, opImm, 7, 0},
	{"add", fmtR, opReg, 0, 0},
	{"sub", fmtR, opReg, 0, hiAlt},
	{"sll", fmtR, opReg, 1, 0},
	{"slt", fmtR, opReg, 2, 0},
	{"sltu", fmtR, opReg, 3, 0},
	{"xor", fmtR, opReg, 4, 0},
	{"srl", fmtR, opReg, 5, 0},
	{"sra", fmtR, opReg, 5, hiAlt},
	{"or", fmtR, opReg, 6, 0},
	{"and", fmtR, opReg, 7, 0},
	{"mul", fmtR, opReg, 0, hiMul},
	{"div", fmtR, opReg, 4, hiMul},
	{"divu", fmtR, opReg, 5, hiMul},
	{"rem", fmtR, opReg, 6, hiMul},
	{"remu", fmtR, opReg, 7, hiMul},
	{"addiw", fmtI, opImm32, 0, 0},
	{"slliw", fmtShW, opImm32, 1, 0},
	{"srliw", fmtShW, opImm32, 5, 0},
	{"sraiw", fmtShW, opImm32, 5, hiAlt},
	{"addw", fmtR, opReg32, 0, 0},
	{"subw", fmtR, opReg32, 0, hiAlt},
	{"sllw", fmtR, opReg32, 1, 0},
	{"srlw", fmtR, opReg32, 5, 0},
	{"sraw", fmtR, opReg32, 5, hiAlt},
	{"mulw", fmtR, opReg32, 0, hiMul},
	{"ecall", fmtSys, opSystem, 0, 0},
}

// mask returns the bits of an encoding that identify the instruction.
func (in *instr) mask() uint32 {
	switch in.format {
	case fmtU, fmtJ:
		return 0x7f
	case fmtR, fmtShW:
		return 0xfe00707f
	case fmtSh:
		return 0xfc00707f
	case fmtSys:
		return 0xffffffff
	}
	return 0x707f
}

func (in *instr) code() uint32 {
	return in.hi | in.f3<<12 | in.opcode
}

func lookup(w uint32) *instr {
	for i := range itab {
		in := &itab[i]
		if w&in.mask() == in.code() {
			return in
		}
	}
	return nil
}

func lookupName(name string) *instr {
	for i := range itab {
		if itab[i].name == name {
			return &itab[i]
		}
	}
	return nil
}

// Field extraction.

func rd(w uint32) RegNum  { return RegNum(w >> 7 & 31) }
func rs1(w uint32) RegNum { return RegNum(w >> 15 & 31) }
func rs2(w uint32) RegNum { return RegNum(w >> 20 & 31) }
func funct3(w uint32) uint32 { return w >> 12 & 7 }

func immI(w uint32) int64 { return int64(int32(w)) >> 20 }

func immS(w uint32) int64 {
	return int64(int32(w))>>25<<5 | int64(w>>7&0x1f)
}

func immB(w uint32) int64 {
	return int64(int32(w))>>31<<12 |
		int64(w>>7&1)<<11 |
		int64(w>>25&0x3f)<<5 |
		int64(w>>8&0xf)<<1
}

func immU(w uint32) int64 { return int64(int32(w & 0xfffff000)) }

func immJ(w uint32) int64 {
	return int64(int32(w))>>31<<20 |
		int64(w>>12&0xff)<<12 |
		int64(w>>20&1)<<11 |
		int64(w>>21&0x3ff)<<1
}

// Encoding.

func encR(in *instr, d, s1, s2 RegNum) uint32 {
	return in.code() | uint32(s2)<<20 | uint32(s1)<<15 | uint32(d)<<7
}

func encI(in *instr, d, s1 RegNum, imm int64) uint32 {
	if imm < -2048 || imm > 2047 {
		panic("immediate out of range")
	}
	return in.code() | uint32(imm)&0xfff<<20 | uint32(s1)<<15 | uint32(d)<<7
}

func encSh(in *instr, d, s1 RegNum, shamt int64) uint32 {
	max := int64(63)
	if in.format == fmtShW {
		max = 31
	}
	if shamt < 0 || shamt > max {
		panic("shift amount out of range")
	}
	return in.code() | uint32(shamt)<<20 | uint32(s1)<<15 | uint32(d)<<7
}

func encS(in *instr, s1, s2 RegNum, imm int64) uint32 {
	if imm < -2048 || imm > 2047 {
		panic("offset out of range")
	}
	u := uint32(imm)
	return in.code() | u>>5&0x7f<<25 | uint32(s2)<<20 | uint32(s1)<<15 | u&0x1f<<7
}

func encB(in *instr, s1, s2 RegNum, off int64) uint32 {
	if off&1 != 0 || off < -4096 || off > 4094 {
		panic("branch target out of range")
	}
	u := uint32(off)
	return in.code() | u>>12&1<<31 | u>>5&0x3f<<25 | uint32(s2)<<20 | uint32(s1)<<15 | u>>1&0xf<<8 | u>>11&1<<7
}

func encU(in *instr, d RegNum, imm20 int64) uint32 {
	return in.code() | uint32(imm20)&0xfffff<<12 | uint32(d)<<7
}

func encJ(in *instr, d RegNum, off int64) uint32 {
	if off&1 != 0 || off < -1<<20 || off >= 1<<20 {
		panic("jump target out of range")
	}
	u := uint32(off)
	return in.code() | u>>20&1<<31 | u>>1&0x3ff<<21 | u>>11&1<<20 | u>>12&0xff<<12 | uint32(d)<<7
}
