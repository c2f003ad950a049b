// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mm

import "fmt"

// A PPN is a physical page number.
type PPN uint64

// firstPPN is where allocatable memory begins, just past the kernel image.
const firstPPN PPN = 0x80400

// A Frame is one page of simulated physical memory.
type Frame struct {
	ppn  PPN
	Data [PageSize]byte
}

func (f *Frame) PPN() PPN { return f.ppn }

// A FrameAllocator hands out a fixed number of physical frames.
// Freed frame numbers are reused most recently freed first.
type FrameAllocator struct {
	next  PPN
	limit PPN
	free  []PPN
	live  map[PPN]*Frame
	tramp *Frame
}

// NewFrameAllocator returns an allocator managing n frames.
func NewFrameAllocator(n int) *FrameAllocator {
	return &FrameAllocator{
		next:  firstPPN,
		limit: firstPPN + PPN(n),
		live:  make(map[PPN]*Frame),
	}
}

// Available returns the number of frames that can still be allocated.
func (a *FrameAllocator) Available() int {
	return int(a.limit-a.next) + len(a.free)
}

// InUse returns the number of allocated frames.
func (a *FrameAllocator) InUse() int { return len(a.live) }

// Alloc returns a zeroed frame.
func (a *FrameAllocator) Alloc() (*Frame, error) {
	var ppn PPN
	switch {
	case len(a.free) > 0:
		ppn = a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
	case a.next < a.limit:
		ppn = a.next
		a.next++
	default:
		return nil, ErrNoMemory
	}
	f := &Frame{ppn: ppn}
	a.live[ppn] = f
	return f, nil
}

// Free returns f to the allocator.
func (a *FrameAllocator) Free(f *Frame) {
	if a.live[f.ppn] != f {
		panic(fmt.Sprintf("mm: frame %#x freed twice or not allocated", f.ppn))
	}
	delete(a.live, f.ppn)
	a.free = append(a.free, f.ppn)
}

// Trampoline returns the frame holding the trap entry code. It is
// allocated on first use, shared by every address space and never freed.
func (a *FrameAllocator) Trampoline() (*Frame, error) {
	if a.tramp == nil {
		f, err := a.Alloc()
		if err != nil {
			return nil, err
		}
		a.tramp = f
	}
	return a.tramp, nil
}
