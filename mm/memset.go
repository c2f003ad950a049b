// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mm

import (
	"fmt"
	"slices"
	"unsafe"

	"rsc.io/rvkern/rv"
)

// A Segment is one loadable piece of a program image.
// Memory past len(Data) up to MemSize is zero.
type Segment struct {
	Vaddr   uint64
	MemSize uint64
	Perm    Perm
	Data    []byte
}

// An area is a contiguous run of pages mapped with the same permissions.
type area struct {
	start, end VPN
	perm       Perm
	frames     map[VPN]*Frame
	shared     bool // frames not owned by this area
}

func (ar *area) pages() int { return int(ar.end - ar.start) }

// A MemorySet is the address space of one task.
type MemorySet struct {
	alloc   *FrameAllocator
	pt      *PageTable
	areas   []*area
	regions Regions

	heap       *area
	heapBottom uint64
	brk        uint64
}

func newMemorySet(a *FrameAllocator) (*MemorySet, error) {
	pt, err := newPageTable(a)
	if err != nil {
		return nil, err
	}
	ms := &MemorySet{alloc: a, pt: pt}
	tramp, err := a.Trampoline()
	if err != nil {
		ms.Recycle()
		return nil, err
	}
	ms.pt.Map(Floor(Trampoline), tramp, R|X)
	ms.areas = append(ms.areas, &area{
		start:  Floor(Trampoline),
		end:    Floor(Trampoline) + 1,
		perm:   R | X,
		frames: map[VPN]*Frame{Floor(Trampoline): tramp},
		shared: true,
	})
	return ms, nil
}

// FromImage builds the address space of a program: its segments, a
// guard page, the user stack, an empty heap at the stack top, and the
// trap context page. It returns the initial user stack pointer.
func FromImage(a *FrameAllocator, segs []Segment) (_ *MemorySet, sp uint64, err error) {
	ms, err := newMemorySet(a)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err != nil {
			ms.Recycle()
		}
	}()

	var top VPN
	for _, seg := range segs {
		size := max(seg.MemSize, uint64(len(seg.Data)))
		if size == 0 {
			continue
		}
		if seg.Vaddr+size < seg.Vaddr || seg.Vaddr+size > UserTop {
			return nil, 0, fmt.Errorf("segment at %#x: %w", seg.Vaddr, ErrRange)
		}
		start, end := Floor(seg.Vaddr), Ceil(seg.Vaddr+size)
		ar, err := ms.insert(start, end, seg.Perm|U)
		if err != nil {
			return nil, 0, fmt.Errorf("segment at %#x: %w", seg.Vaddr, err)
		}
		ar.write(PageOffset(seg.Vaddr), seg.Data)
		top = max(top, end)
	}

	stackBottom := top + 1 // guard page
	stackTop := stackBottom + UserStackSize/PageSize
	if _, err := ms.insert(stackBottom, stackTop, R|W|U); err != nil {
		return nil, 0, fmt.Errorf("user stack: %w", err)
	}
	ms.heap, _ = ms.insert(stackTop, stackTop, R|W|U)
	ms.heapBottom = stackTop.Addr()
	ms.brk = ms.heapBottom

	if _, err := ms.insert(Floor(TrapContext), Floor(TrapContext)+1, R|W); err != nil {
		return nil, 0, fmt.Errorf("trap context: %w", err)
	}
	return ms, stackTop.Addr(), nil
}

// insert maps fresh zeroed frames over [start, end). Nothing changes
// unless the whole range is free and enough frames are available.
func (ms *MemorySet) insert(start, end VPN, perm Perm) (*area, error) {
	if ms.pt.anyMapped(start, end) {
		return nil, ErrOverlap
	}
	if int(end-start) > ms.alloc.Available() {
		return nil, ErrNoMemory
	}
	ar := &area{start: start, end: end, perm: perm, frames: make(map[VPN]*Frame)}
	for v := start; v < end; v++ {
		ms.mapPage(ar, v)
	}
	ms.areas = append(ms.areas, ar)
	return ar, nil
}

// mapPage backs v with a new frame. The caller has checked that one
// is available.
func (ms *MemorySet) mapPage(ar *area, v VPN) {
	f, err := ms.alloc.Alloc()
	if err != nil {
		panic("mm: frame allocation failed after check: " + err.Error())
	}
	ar.frames[v] = f
	ms.pt.Map(v, f, ar.perm)
}

func (ms *MemorySet) unmapPage(ar *area, v VPN) {
	ms.pt.Unmap(v)
	if !ar.shared {
		ms.alloc.Free(ar.frames[v])
	}
	delete(ar.frames, v)
}

func (ms *MemorySet) remove(ar *area) {
	for v := ar.start; v < ar.end; v++ {
		ms.unmapPage(ar, v)
	}
	i := slices.Index(ms.areas, ar)
	ms.areas = slices.Delete(ms.areas, i, i+1)
}

// write copies data into the area starting off bytes into its first page.
func (ar *area) write(off uint64, data []byte) {
	for v := ar.start; len(data) > 0; v++ {
		n := copy(ar.frames[v].Data[off:], data)
		data = data[n:]
		off = 0
	}
}

// Token returns the satp value of the address space.
func (ms *MemorySet) Token() uint64 { return ms.pt.Token() }

// PageTable returns the page table of the address space.
func (ms *MemorySet) PageTable() *PageTable { return ms.pt }

// TrapFrame returns the trap frame stored in the trap context page.
func (ms *MemorySet) TrapFrame() *rv.TrapFrame {
	pte, ok := ms.pt.Translate(Floor(TrapContext))
	if !ok {
		panic("mm: no trap context page")
	}
	return (*rv.TrapFrame)(unsafe.Pointer(&pte.Frame.Data[0]))
}

// Clone returns a copy of ms with its own frames holding the same
// contents, as for fork. Shared mappings stay shared.
func (ms *MemorySet) Clone() (*MemorySet, error) {
	need := 1 // root
	for _, ar := range ms.areas {
		if !ar.shared {
			need += ar.pages()
		}
	}
	if need > ms.alloc.Available() {
		return nil, ErrNoMemory
	}
	c := &MemorySet{
		alloc:      ms.alloc,
		regions:    ms.regions.clone(),
		heapBottom: ms.heapBottom,
		brk:        ms.brk,
	}
	c.pt, _ = newPageTable(ms.alloc)
	for _, ar := range ms.areas {
		nar := &area{start: ar.start, end: ar.end, perm: ar.perm, frames: make(map[VPN]*Frame), shared: ar.shared}
		for v := ar.start; v < ar.end; v++ {
			if ar.shared {
				nar.frames[v] = ar.frames[v]
				c.pt.Map(v, ar.frames[v], ar.perm)
				continue
			}
			c.mapPage(nar, v)
			nar.frames[v].Data = ar.frames[v].Data
		}
		c.areas = append(c.areas, nar)
		if ar == ms.heap {
			c.heap = nar
		}
	}
	return c, nil
}

// Recycle releases every frame of the address space, including the
// page table itself. The MemorySet must not be used afterward.
func (ms *MemorySet) Recycle() {
	for _, ar := range slices.Clone(ms.areas) {
		ms.remove(ar)
	}
	ms.regions = Regions{}
	ms.heap = nil
	if ms.pt.root != nil {
		ms.alloc.Free(ms.pt.root)
		ms.pt.root = nil
	}
}

// Mmap maps [start, start+length) rounded up to whole pages with
// permissions perm, which must include U. On error nothing changes.
func (ms *MemorySet) Mmap(start, length uint64, perm Perm) error {
	if !Aligned(start) {
		return ErrUnaligned
	}
	if perm&(R|W|X) == 0 || perm&U == 0 {
		return ErrPermission
	}
	if length == 0 || length > UserTop {
		return ErrRange
	}
	end := start + RoundUp(length)
	if end < start || end > UserTop {
		return ErrRange
	}
	if ms.regions.Overlaps(start, end) {
		return ErrOverlap
	}
	if _, err := ms.insert(Floor(start), Floor(end), perm); err != nil {
		return err
	}
	ms.regions.Insert(Region{start, end, perm})
	return nil
}

// Munmap removes the mmap regions that exactly tile [start,
// start+length) rounded up to whole pages. On error nothing changes.
func (ms *MemorySet) Munmap(start, length uint64) error {
	if !Aligned(start) {
		return ErrUnaligned
	}
	if length == 0 || length > UserTop {
		return ErrRange
	}
	end := start + RoundUp(length)
	if end < start {
		return ErrRange
	}
	i, j, err := ms.regions.Cover(start, end)
	if err != nil {
		return err
	}
	for _, r := range ms.regions.list[i:j] {
		k := slices.IndexFunc(ms.areas, func(ar *area) bool {
			return ar.start == Floor(r.Start) && ar.end == Floor(r.End)
		})
		ms.remove(ms.areas[k])
	}
	ms.regions.Delete(i, j)
	return nil
}

// Regions returns the live mmap regions in address order.
func (ms *MemorySet) Regions() []Region { return ms.regions.All() }

// Brk returns the current program break.
func (ms *MemorySet) Brk() uint64 { return ms.brk }

// HeapBottom returns the lowest valid program break.
func (ms *MemorySet) HeapBottom() uint64 { return ms.heapBottom }

// ChangeBrk moves the program break by delta bytes and returns the old
// break. The break may not drop below the heap bottom, and growth may
// not run into another mapping. On error nothing changes.
func (ms *MemorySet) ChangeBrk(delta int64) (old uint64, err error) {
	old = ms.brk
	nb := old + uint64(delta)
	if delta < 0 && nb > old || delta > 0 && nb < old {
		return 0, ErrBreak
	}
	if nb < ms.heapBottom || nb > UserTop {
		return 0, ErrBreak
	}
	h := ms.heap
	end := Ceil(nb)
	switch {
	case end > h.end:
		if ms.pt.anyMapped(h.end, end) || ms.regions.Overlaps(h.end.Addr(), end.Addr()) {
			return 0, ErrOverlap
		}
		if int(end-h.end) > ms.alloc.Available() {
			return 0, ErrNoMemory
		}
		for v := h.end; v < end; v++ {
			ms.mapPage(h, v)
		}
		h.end = end
	case end < h.end:
		for v := end; v < h.end; v++ {
			ms.unmapPage(h, v)
		}
		h.end = end
	}
	ms.brk = nb
	return old, nil
}
