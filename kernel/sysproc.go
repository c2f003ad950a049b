// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"rsc.io/rvkern/mm"
)

func sysexit(t *TCB) int64 {
	t.m.Exit(int32(t.args[0]))
	return 0
}

func sysyield(t *TCB) int64 {
	t.m.Suspend()
	return 0
}

func sysgetpid(t *TCB) int64 {
	return int64(t.pid)
}

func sysfork(t *TCB) int64 {
	c, err := t.m.fork(t)
	if err != nil {
		t.m.log.Debug("fork failed", "pid", t.pid, "err", err)
		return -1
	}
	t.m.log.Info("fork", "pid", t.pid, "child", c.pid)
	return int64(c.pid)
}

func sysexec(t *TCB) int64 {
	name, err := t.space.ReadString(t.args[0], MaxString)
	if err != nil {
		return -1
	}
	img, ok := t.m.cfg.Apps.Lookup(name)
	if !ok {
		return -1
	}
	if err := t.m.exec(t, img); err != nil {
		t.m.log.Debug("exec failed", "pid", t.pid, "err", err)
		return -1
	}
	t.m.log.Info("exec", "pid", t.pid, "app", name)
	return 0
}

func sysspawn(t *TCB) int64 {
	name, err := t.space.ReadString(t.args[0], MaxString)
	if err != nil {
		return -1
	}
	img, ok := t.m.cfg.Apps.Lookup(name)
	if !ok {
		return -1
	}
	c, err := t.m.spawn(t, img)
	if err != nil {
		t.m.log.Debug("spawn failed", "pid", t.pid, "err", err)
		return -1
	}
	t.m.log.Info("spawn", "pid", t.pid, "child", c.pid, "app", name)
	return int64(c.pid)
}

/*
 * Poll for a child to reap.
 * -1 if no child matches pid (-1 matches any),
 * -2 if none of the matching children has exited.
 */
func syswaitpid(t *TCB) int64 {
	pid := int64(t.args[0])
	found := false
	for i, c := range t.children {
		if pid != -1 && int64(c.pid) != pid {
			continue
		}
		found = true
		if c.status != Zombie {
			continue
		}
		var code [4]byte
		binary.LittleEndian.PutUint32(code[:], uint32(c.exitCode))
		if err := t.space.CopyOut(t.args[1], code[:]); err != nil {
			return -1
		}
		t.children = slices.Delete(t.children, i, i+1)
		if c.release() != 0 {
			panic(fmt.Sprintf("kernel: reaped task %v still referenced", c))
		}
		t.m.destroy(c)
		return int64(c.pid)
	}
	if !found {
		return -1
	}
	return -2
}

func syssetpriority(t *TCB) int64 {
	prio := int64(t.args[0])
	if prio < MinPriority {
		return -1
	}
	t.priority = prio
	return prio
}

// A TimeVal is the user layout of get_time's result.
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

func sysgettime(t *TCB) int64 {
	now := t.m.clock.Now()
	tv := TimeVal{
		Sec:  uint64(now / time.Second),
		Usec: uint64(now % time.Second / time.Microsecond),
	}
	b, _ := binary.Append(nil, binary.LittleEndian, &tv)
	if err := t.space.CopyOut(t.args[0], b); err != nil {
		return -1
	}
	return 0
}

// A TaskInfo is the user layout of task_info's result.
type TaskInfo struct {
	Status       TaskStatus
	SyscallTimes [MaxSyscallNum]uint32
	_            uint32
	Time         uint64 // milliseconds
}

// Info returns the task's status, syscall counts and running time.
func (t *TCB) Info() TaskInfo {
	return TaskInfo{
		Status:       t.status,
		SyscallTimes: t.syscalls,
		Time:         uint64(t.Elapsed().Milliseconds()),
	}
}

func systaskinfo(t *TCB) int64 {
	info := t.Info()
	b, _ := binary.Append(nil, binary.LittleEndian, &info)
	if err := t.space.CopyOut(t.args[0], b); err != nil {
		return -1
	}
	return 0
}

func syswrite(t *TCB) int64 {
	fd, n := t.args[0], t.args[2]
	if fd != 1 && fd != 2 || n > mm.UserTop {
		return -1
	}
	bufs, err := t.space.UserBuffers(t.args[1], int(n), false)
	if err != nil {
		return -1
	}
	for _, b := range bufs {
		if _, err := t.m.console.Write(b); err != nil {
			return -1
		}
	}
	return int64(n)
}
