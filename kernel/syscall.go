// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rsc.io/rvkern/rv"
)

// Trap carries out the system call t has stopped at. The trap frame
// holds the call number in a7 and the arguments in a0 to a2, and sepc
// already points past the ecall. The result goes back in a0 of t's
// current trap frame, which exec may have replaced; a call that ends
// the task has no result.
func (m *Manager) Trap(t *TCB) {
	tf := t.TrapFrame()
	num := tf.X[rv.A7]
	t.args = [3]uint64{tf.X[rv.A0], tf.X[rv.A1], tf.X[rv.A2]}
	if num < MaxSyscallNum {
		t.syscalls[num]++
	}
	if num >= MaxSyscallNum || sysent[num].impl == nil {
		m.log.Warn("unsupported syscall", "pid", t.pid, "num", num)
		tf.SetReturn(-1)
		return
	}
	sys := &sysent[num]

	var desc []byte
	trace := m.log.Enabled(context.Background(), slog.LevelDebug)
	if trace {
		desc = t.describe(sys)
	}
	ret := sys.impl(t)
	if trace {
		desc = t.describeResult(desc, sys, ret)
		m.log.Debug("syscall", "pid", t.pid, "call", string(desc))
	}
	if t.status == Zombie {
		return
	}
	t.TrapFrame().SetReturn(ret)
}

func (t *TCB) describe(sys *sysentry) []byte {
	var desc []byte
	arg := 0
	for i := 0; i < len(sys.name); i++ {
		if c := sys.name[i]; c != '%' {
			desc = append(desc, c)
			if c == ')' {
				break
			}
			continue
		}
		i++
		switch c := sys.name[i]; c {
		case 'd':
			desc = fmt.Appendf(desc, "%d", int64(t.args[arg]))
			arg++
		case 'x':
			desc = fmt.Appendf(desc, "%#x", t.args[arg])
			arg++
		case 's':
			s, err := t.space.ReadString(t.args[arg], MaxString)
			if err != nil {
				desc = fmt.Appendf(desc, "%#x", t.args[arg])
			} else {
				desc = fmt.Appendf(desc, "%q", s)
			}
			arg++
		case 'q':
			buf := make([]byte, min(t.args[arg+1], 64))
			if err := t.space.CopyIn(buf, t.args[arg]); err != nil {
				desc = fmt.Appendf(desc, "%#x, %d", t.args[arg], t.args[arg+1])
			} else {
				desc = fmt.Appendf(desc, "%q", buf)
			}
			arg += 2
		default:
			desc = append(desc, '%', c)
		}
	}
	return desc
}

func (t *TCB) describeResult(desc []byte, sys *sysentry, ret int64) []byte {
	_, after, ok := strings.Cut(sys.name, ")")
	if !ok {
		return desc
	}
	for i := 0; i < len(after); i++ {
		if c := after[i]; c != '%' {
			desc = append(desc, c)
			continue
		}
		i++
		switch c := after[i]; c {
		case 'd':
			desc = fmt.Appendf(desc, "%d", ret)
		case 'x':
			desc = fmt.Appendf(desc, "%#x", uint64(ret))
		default:
			desc = append(desc, '%', c)
		}
	}
	return desc
}
