// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import "rsc.io/rvkern/mm"

func syssbrk(t *TCB) int64 {
	old, err := t.changeBrk(int64(t.args[0]))
	if err != nil {
		t.m.log.Debug("sbrk failed", "pid", t.pid, "err", err)
		return -1
	}
	return int64(old)
}

func sysmmap(t *TCB) int64 {
	perm, err := mm.ProtFromBits(t.args[2])
	if err == nil {
		err = t.space.Mmap(t.args[0], t.args[1], perm)
	}
	if err != nil {
		t.m.log.Debug("mmap failed", "pid", t.pid, "err", err)
		return -1
	}
	return 0
}

func sysmunmap(t *TCB) int64 {
	if err := t.space.Munmap(t.args[0], t.args[1]); err != nil {
		t.m.log.Debug("munmap failed", "pid", t.pid, "err", err)
		return -1
	}
	return 0
}
