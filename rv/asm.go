// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// A Program is the output of Assemble: a text and a data section
// laid out at fixed virtual addresses.
type Program struct {
	TextBase uint64
	Text     []byte
	DataBase uint64
	Data     []byte
	Entry    uint64 // address of _start, or TextBase
	Symbols  map[string]uint64
}

type stmt struct {
	line int
	sect int // 0 text, 1 data
	addr uint64
	op   string
	args []string
	str  string // .asciz operand
}

type asmState struct {
	base  [2]uint64
	pc    [2]uint64
	syms  map[string]uint64
	stmts []*stmt
}

// Assemble translates src into a Program.
// Text is placed at textBase and data at dataBase.
func Assemble(src string, textBase, dataBase uint64) (prog *Program, err error) {
	a := &asmState{
		base: [2]uint64{textBase, dataBase},
		pc:   [2]uint64{textBase, dataBase},
		syms: make(map[string]uint64),
	}
	lineno := 0
	defer func() {
		if e := recover(); e != nil {
			if _, ok := e.(runtime.Error); ok {
				panic(e)
			}
			err = fmt.Errorf("asm: line %d: %v", lineno, e)
		}
	}()

	// Pass 1: parse and assign addresses.
	sect := 0
	for i, line := range strings.Split(src, "\n") {
		lineno = i + 1
		line = stripComment(line)
		for {
			line = strings.TrimSpace(line)
			j := strings.Index(line, ":")
			if j < 0 || strings.ContainsAny(line[:j], " \t\"") {
				break
			}
			label := line[:j]
			if _, dup := a.syms[label]; dup {
				panic(fmt.Sprintf("duplicate label %q", label))
			}
			a.syms[label] = a.pc[sect]
			line = line[j+1:]
		}
		if line == "" {
			continue
		}
		op, rest := line, ""
		if j := strings.IndexAny(line, " \t"); j >= 0 {
			op, rest = line[:j], strings.TrimSpace(line[j:])
		}
		op = strings.ToLower(op)
		switch op {
		case ".text":
			sect = 0
			continue
		case ".data":
			sect = 1
			continue
		case ".globl", ".global", ".section":
			continue
		}
		s := &stmt{line: lineno, sect: sect, op: op}
		if op == ".asciz" || op == ".string" {
			str, err := strconv.Unquote(rest)
			if err != nil {
				panic("invalid string literal")
			}
			s.str = str
		} else if rest != "" {
			for _, arg := range strings.Split(rest, ",") {
				s.args = append(s.args, strings.TrimSpace(arg))
			}
		}
		if sect == 1 && !strings.HasPrefix(op, ".") {
			panic("instruction in data section")
		}
		if op == ".align" {
			n := uint64(1) << a.constArg(s, 0)
			a.pc[sect] = (a.pc[sect] + n - 1) &^ (n - 1)
		}
		s.addr = a.pc[sect]
		a.pc[sect] += a.size(s)
		a.stmts = append(a.stmts, s)
	}
	if a.pc[0] > a.base[0] && a.pc[1] > a.base[1] && a.base[0] < a.pc[1] && a.base[1] < a.pc[0] {
		lineno = 0
		panic("text section overlaps data section")
	}

	// Pass 2: encode.
	prog = &Program{
		TextBase: textBase,
		DataBase: dataBase,
		Entry:    textBase,
		Symbols:  a.syms,
	}
	if start, ok := a.syms["_start"]; ok {
		prog.Entry = start
	}
	out := [2]*[]byte{&prog.Text, &prog.Data}
	for _, s := range a.stmts {
		lineno = s.line
		buf := out[s.sect]
		for uint64(len(*buf)) < s.addr-a.base[s.sect] {
			*buf = append(*buf, 0)
		}
		*buf = a.emit(*buf, s)
	}
	return prog, nil
}

func stripComment(line string) string {
	quoted := false
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case c == '#' && !quoted:
			return line[:i]
		}
	}
	return line
}

func (a *asmState) size(s *stmt) uint64 {
	switch s.op {
	case ".asciz", ".string":
		return uint64(len(s.str) + 1)
	case ".byte":
		return uint64(len(s.args))
	case ".word":
		return 4 * uint64(len(s.args))
	case ".dword":
		return 8 * uint64(len(s.args))
	case ".space", ".zero":
		return uint64(a.constArg(s, 0))
	case ".align":
		return 0
	case "la":
		return 8
	case "li":
		if n := a.constArg(s, 1); n < -2048 || n > 2047 {
			return 8
		}
		return 4
	}
	if strings.HasPrefix(s.op, ".") {
		panic(fmt.Sprintf("unknown directive %s", s.op))
	}
	return 4
}

func (a *asmState) emit(buf []byte, s *stmt) []byte {
	switch s.op {
	case ".asciz", ".string":
		buf = append(buf, s.str...)
		return append(buf, 0)
	case ".byte":
		for i := range s.args {
			buf = append(buf, byte(a.constArg(s, i)))
		}
		return buf
	case ".word":
		for i := range s.args {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(a.value(s.args[i])))
		}
		return buf
	case ".dword":
		for i := range s.args {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(a.value(s.args[i])))
		}
		return buf
	case ".space", ".zero":
		return append(buf, make([]byte, a.constArg(s, 0))...)
	case ".align":
		return buf
	}
	for _, w := range a.encode(s) {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	return buf
}

func (a *asmState) encode(s *stmt) []uint32 {
	args := s.args
	want := func(n int) {
		if len(args) != n {
			panic(fmt.Sprintf("%s: invalid argument count %d != %d", s.op, len(args), n))
		}
	}
	reg := func(i int) RegNum { return parseReg(args[i]) }
	rel := func(i int) int64 { return int64(a.target(args[i]) - s.addr) }
	op := func(name string) *instr { return lookupName(name) }

	switch s.op {
	case "nop":
		want(0)
		return []uint32{encI(op("addi"), Zero, Zero, 0)}
	case "mv":
		want(2)
		return []uint32{encI(op("addi"), reg(0), reg(1), 0)}
	case "not":
		want(2)
		return []uint32{encI(op("xori"), reg(0), reg(1), -1)}
	case "neg":
		want(2)
		return []uint32{encR(op("sub"), reg(0), Zero, reg(1))}
	case "seqz":
		want(2)
		return []uint32{encI(op("sltiu"), reg(0), reg(1), 1)}
	case "snez":
		want(2)
		return []uint32{encR(op("sltu"), reg(0), Zero, reg(1))}
	case "li":
		want(2)
		d, n := reg(0), a.constArg(s, 1)
		if n >= -2048 && n <= 2047 {
			return []uint32{encI(op("addi"), d, Zero, n)}
		}
		if n != int64(int32(n)) {
			panic("li constant out of range")
		}
		hi := (n + 0x800) >> 12
		lo := n - hi<<12
		return []uint32{encU(op("lui"), d, hi), encI(op("addiw"), d, d, lo)}
	case "la":
		want(2)
		d := reg(0)
		off := rel(1)
		hi := (off + 0x800) >> 12
		lo := off - hi<<12
		return []uint32{encU(op("auipc"), d, hi), encI(op("addi"), d, d, lo)}
	case "j":
		want(1)
		return []uint32{encJ(op("jal"), Zero, rel(0))}
	case "call":
		want(1)
		return []uint32{encJ(op("jal"), RA, rel(0))}
	case "jr":
		want(1)
		return []uint32{encI(op("jalr"), Zero, reg(0), 0)}
	case "ret":
		want(0)
		return []uint32{encI(op("jalr"), Zero, RA, 0)}
	case "beqz", "bnez", "bltz", "bgez":
		want(2)
		in := op(s.op[:3])
		return []uint32{encB(in, reg(0), Zero, rel(1))}
	case "bgtz":
		want(2)
		return []uint32{encB(op("blt"), Zero, reg(0), rel(1))}
	case "blez":
		want(2)
		return []uint32{encB(op("bge"), Zero, reg(0), rel(1))}
	case "bgt", "ble", "bgtu", "bleu":
		want(3)
		name := map[string]string{"bgt": "blt", "ble": "bge", "bgtu": "bltu", "bleu": "bgeu"}[s.op]
		return []uint32{encB(op(name), reg(1), reg(0), rel(2))}
	}

	in := lookupName(s.op)
	if in == nil {
		panic(fmt.Sprintf("unknown instruction %q", s.op))
	}
	switch in.format {
	case fmtR:
		want(3)
		return []uint32{encR(in, reg(0), reg(1), reg(2))}
	case fmtI:
		want(3)
		return []uint32{encI(in, reg(0), reg(1), a.constArg(s, 2))}
	case fmtSh, fmtShW:
		want(3)
		return []uint32{encSh(in, reg(0), reg(1), a.constArg(s, 2))}
	case fmtL:
		want(2)
		off, base := a.parseMem(args[1])
		return []uint32{encI(in, reg(0), base, off)}
	case fmtS:
		want(2)
		off, base := a.parseMem(args[1])
		return []uint32{encS(in, base, reg(0), off)}
	case fmtB:
		want(3)
		return []uint32{encB(in, reg(0), reg(1), rel(2))}
	case fmtU:
		want(2)
		return []uint32{encU(in, reg(0), a.constArg(s, 1))}
	case fmtJ:
		if len(args) == 1 {
			return []uint32{encJ(in, RA, rel(0))}
		}
		want(2)
		return []uint32{encJ(in, reg(0), rel(1))}
	case fmtJALR:
		switch len(args) {
		case 1:
			return []uint32{encI(in, RA, reg(0), 0)}
		case 2:
			off, base := a.parseMem(args[1])
			return []uint32{encI(in, reg(0), base, off)}
		}
		want(2)
	case fmtSys:
		want(0)
		return []uint32{in.code()}
	}
	panic("unreachable")
}

func parseReg(arg string) RegNum {
	for i, name := range regNames {
		if arg == name {
			return RegNum(i)
		}
	}
	switch arg {
	case "fp":
		return S0
	}
	if strings.HasPrefix(arg, "x") {
		if n, err := strconv.Atoi(arg[1:]); err == nil && 0 <= n && n < 32 {
			return RegNum(n)
		}
	}
	panic(fmt.Sprintf("invalid register %q", arg))
}

func parseConst(arg string) (int64, bool) {
	if n, err := strconv.ParseInt(arg, 0, 64); err == nil {
		return n, true
	}
	if n, err := strconv.ParseUint(arg, 0, 64); err == nil {
		return int64(n), true
	}
	if len(arg) >= 3 && arg[0] == '\'' {
		if r, _, tail, err := strconv.UnquoteChar(arg[1:len(arg)-1], '\''); err == nil && tail == "" {
			return int64(r), true
		}
	}
	return 0, false
}

func (a *asmState) constArg(s *stmt, i int) int64 {
	if i >= len(s.args) {
		panic(fmt.Sprintf("%s: missing argument", s.op))
	}
	n, ok := parseConst(s.args[i])
	if !ok {
		panic(fmt.Sprintf("invalid constant %q", s.args[i]))
	}
	return n
}

// value evaluates a constant or a symbol.
func (a *asmState) value(arg string) int64 {
	if n, ok := parseConst(arg); ok {
		return n
	}
	return int64(a.target(arg))
}

func (a *asmState) target(arg string) uint64 {
	if addr, ok := a.syms[arg]; ok {
		return addr
	}
	if n, ok := parseConst(arg); ok {
		return uint64(n)
	}
	panic(fmt.Sprintf("undefined symbol %q", arg))
}

func (a *asmState) parseMem(arg string) (off int64, base RegNum) {
	i := strings.Index(arg, "(")
	if i < 0 || !strings.HasSuffix(arg, ")") {
		panic("bad memory operand syntax")
	}
	if i > 0 {
		n, ok := parseConst(strings.TrimSpace(arg[:i]))
		if !ok {
			panic(fmt.Sprintf("invalid offset %q", arg[:i]))
		}
		off = n
	}
	return off, parseReg(strings.TrimSpace(arg[i+1 : len(arg)-1]))
}
