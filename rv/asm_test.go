// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

const basePC = 0x10000

var asmTests = []struct {
	text string
	code uint32
}{
	{"addi a0, a0, 1", 0x00150513},
	{"li a7, 93", 0x05d00893},
	{"add a0, a1, a2", 0x00c58533},
	{"sub a0, a1, a2", 0x40c58533},
	{"ld a0, 8(sp)", 0x00813503},
	{"sd ra, 8(sp)", 0x00113423},
	{"lui a0, 0x12345", 0x12345537},
	{"slli a0, a0, 3", 0x00351513},
	{"srai a0, a0, 3", 0x40355513},
	{"ret", 0x00008067},
	{"ecall", 0x00000073},
	{"mv s0, a0", 0x00050413},
	{"nop", 0x00000013},
	{"mul a0, a0, a1", 0x02b50533},
}

func asm1(t *testing.T, text string) uint32 {
	t.Helper()
	prog, err := Assemble(text, basePC, basePC+0x1000)
	require.NoError(t, err, "Assemble(%q)", text)
	require.Len(t, prog.Text, 4, "Assemble(%q)", text)
	return binary.LittleEndian.Uint32(prog.Text)
}

func TestAsm(t *testing.T) {
	for _, tt := range asmTests {
		if code := asm1(t, tt.text); code != tt.code {
			t.Errorf("Assemble(%q) = %#08x, want %#08x", tt.text, code, tt.code)
		}
	}
}

func TestDisasmAsm(t *testing.T) {
	texts := []string{
		"addi t0, sp, -16",
		"andi a0, a1, 255",
		"sltiu a0, a0, 1",
		"lw a1, -4(s0)",
		"lbu a2, 0(a0)",
		"sb a2, 3(a1)",
		"jalr ra, 0(t1)",
		"auipc gp, 0x1",
		"addiw a0, a0, -1",
		"sraiw a0, a0, 31",
		"subw a0, a1, a2",
		"remu t0, t1, t2",
		"ecall",
	}
	for _, text := range texts {
		code := asm1(t, text)
		dis, err := Disasm(basePC, code)
		require.NoError(t, err)
		if again := asm1(t, dis); again != code {
			t.Errorf("Disasm(%#08x) = %q, but Assemble(%q) = %#08x", code, dis, dis, again)
		}
	}
}

func TestAsmBranches(t *testing.T) {
	prog, err := Assemble(`
_start:
	li a0, 0
loop:
	addi a0, a0, 1
	bnez a0, loop
	j _start
	call _start
`, basePC, basePC+0x1000)
	require.NoError(t, err)
	require.Equal(t, uint64(basePC), prog.Entry)
	require.Equal(t, uint64(basePC+4), prog.Symbols["loop"])

	words := make([]uint32, len(prog.Text)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(prog.Text[4*i:])
	}
	for i, want := range []string{
		"addi a0, zero, 0",
		"addi a0, a0, 1",
		"bne a0, zero, 0x10004",
		"jal zero, 0x10000",
		"jal ra, 0x10000",
	} {
		have, err := Disasm(basePC+4*uint64(i), words[i])
		require.NoError(t, err)
		require.Equal(t, want, have, "instruction %d", i)
	}
}

func TestAsmData(t *testing.T) {
	prog, err := Assemble(`
	.text
	la a0, msg   # address of the message
	.data
msg:
	.asciz "hi # there\n"
	.align 3
val:
	.dword 7, msg
`, basePC, basePC+0x1000)
	require.NoError(t, err)
	require.Len(t, prog.Text, 8)
	require.Equal(t, uint64(basePC+0x1000), prog.Symbols["msg"])
	require.Equal(t, uint64(basePC+0x1010), prog.Symbols["val"])
	require.Equal(t, "hi # there\n\x00", string(prog.Data[:12]))
	require.Equal(t, uint64(7), binary.LittleEndian.Uint64(prog.Data[0x10:]))
	require.Equal(t, uint64(basePC+0x1000), binary.LittleEndian.Uint64(prog.Data[0x18:]))
}

func TestAsmErrors(t *testing.T) {
	for _, src := range []string{
		"frob a0",
		"addi a0, a0",
		"addi a0, a0, 5000",
		"addi q9, a0, 1",
		"j nowhere",
		"x:\nx:",
		".data\naddi a0, a0, 1",
		"li a0, 0x100000000",
	} {
		_, err := Assemble(src, basePC, basePC+0x1000)
		require.Error(t, err, "Assemble(%q)", src)
	}
}
