// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rv

import "fmt"

// Disasm returns the assembly text for the instruction w located at pc.
func Disasm(pc uint64, w uint32) (string, error) {
	in := lookup(w)
	if in == nil {
		return "", fmt.Errorf("unknown instruction %#08x", w)
	}
	switch in.format {
	case fmtR:
		return fmt.Sprintf("%s %v, %v, %v", in.name, rd(w), rs1(w), rs2(w)), nil
	case fmtI:
		return fmt.Sprintf("%s %v, %v, %d", in.name, rd(w), rs1(w), immI(w)), nil
	case fmtSh:
		return fmt.Sprintf("%s %v, %v, %d", in.name, rd(w), rs1(w), w>>20&63), nil
	case fmtShW:
		return fmt.Sprintf("%s %v, %v, %d", in.name, rd(w), rs1(w), w>>20&31), nil
	case fmtL, fmtJALR:
		return fmt.Sprintf("%s %v, %d(%v)", in.name, rd(w), immI(w), rs1(w)), nil
	case fmtS:
		return fmt.Sprintf("%s %v, %d(%v)", in.name, rs2(w), immS(w), rs1(w)), nil
	case fmtB:
		return fmt.Sprintf("%s %v, %v, %#x", in.name, rs1(w), rs2(w), pc+uint64(immB(w))), nil
	case fmtU:
		return fmt.Sprintf("%s %v, %#x", in.name, rd(w), uint32(immU(w))>>12), nil
	case fmtJ:
		return fmt.Sprintf("%s %v, %#x", in.name, rd(w), pc+uint64(immJ(w))), nil
	}
	return in.name, nil
}
