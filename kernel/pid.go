// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"fmt"
	"slices"

	"rsc.io/rvkern/mm"
)

// A PidAllocator hands out process ids, reusing an id only after
// the task holding it has been destroyed.
type PidAllocator struct {
	next     int
	recycled []int
}

// Alloc returns the most recently freed pid, or a new one.
func (a *PidAllocator) Alloc() int {
	if n := len(a.recycled); n > 0 {
		pid := a.recycled[n-1]
		a.recycled = a.recycled[:n-1]
		return pid
	}
	pid := a.next
	a.next++
	return pid
}

// Free makes pid available again. Freeing a pid that is not
// allocated panics.
func (a *PidAllocator) Free(pid int) {
	if pid >= a.next || slices.Contains(a.recycled, pid) {
		panic(fmt.Sprintf("kernel: pid %d freed twice", pid))
	}
	a.recycled = append(a.recycled, pid)
}

// A KernelStack is the kernel stack of one task, placed by pid.
type KernelStack struct {
	Bottom, Top uint64
}

func kernelStack(pid int) KernelStack {
	bottom, top := mm.KernelStackRange(pid)
	return KernelStack{bottom, top}
}
