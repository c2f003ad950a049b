// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mm

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

const textBase = 0x10000

func newTestSet(t *testing.T, frames int) (*FrameAllocator, *MemorySet, uint64) {
	t.Helper()
	a := NewFrameAllocator(frames)
	ms, sp, err := FromImage(a, []Segment{
		{Vaddr: textBase, Perm: R | X, Data: []byte{0x73, 0, 0, 0}}, // ecall
		{Vaddr: textBase + PageSize, MemSize: 2 * PageSize, Perm: R | W, Data: []byte("hello\x00")},
	})
	require.NoError(t, err)
	return a, ms, sp
}

func TestFromImage(t *testing.T) {
	a, ms, sp := newTestSet(t, 64)

	// text, data (2 pages), guard, stack (2 pages)
	require.Equal(t, uint64(textBase+6*PageSize), sp)
	require.Equal(t, sp, ms.HeapBottom())
	require.Equal(t, sp, ms.Brk())

	w, err := ms.Fetch(textBase)
	require.NoError(t, err)
	require.Equal(t, uint32(0x73), w)

	s, err := ms.ReadString(textBase+PageSize, 100)
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	// text is not writable, data is not executable, guard page is unmapped
	require.ErrorIs(t, ms.Store(textBase, 4, 0), ErrFault)
	_, err = ms.Fetch(textBase + PageSize)
	require.ErrorIs(t, err, ErrFault)
	_, err = ms.Load(textBase+3*PageSize, 8)
	require.ErrorIs(t, err, ErrFault)
	require.NoError(t, ms.Store(sp-8, 8, 42))

	// trap context is kernel only
	_, err = ms.Load(TrapContext, 8)
	require.ErrorIs(t, err, ErrFault)
	ms.TrapFrame().Sepc = textBase
	require.Equal(t, uint64(textBase), ms.TrapFrame().Sepc)

	// root, trampoline, text, 2 data, 2 stack, trap context
	require.Equal(t, 8, a.InUse())
	ms.Recycle()
	require.Equal(t, 1, a.InUse(), "only the shared trampoline should remain")
}

func TestFromImageNoMemory(t *testing.T) {
	a := NewFrameAllocator(4)
	_, _, err := FromImage(a, []Segment{{Vaddr: textBase, MemSize: 8 * PageSize, Perm: R}})
	require.ErrorIs(t, err, ErrNoMemory)
	require.Equal(t, 1, a.InUse())
}

func TestCopyOutAcrossPages(t *testing.T) {
	_, ms, sp := newTestSet(t, 64)
	buf := make([]byte, 100)
	for i := range buf {
		buf[i] = byte(i)
	}
	va := sp - PageSize - 50
	require.NoError(t, ms.CopyOut(va, buf))
	got := make([]byte, len(buf))
	require.NoError(t, ms.CopyIn(got, va))
	require.Equal(t, buf, got)

	// A write that runs off the end of the stack changes nothing.
	require.ErrorIs(t, ms.CopyOut(sp-4, []byte{9, 9, 9, 9, 9, 9, 9, 9}), ErrFault)
	v, err := ms.Load(sp-8, 8)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestMmap(t *testing.T) {
	a, ms, _ := newTestSet(t, 64)
	const base = 0x10000000

	require.NoError(t, ms.Mmap(base, 1, R|W|U))
	require.NoError(t, ms.Store(base+PageSize-8, 8, 7), "length should round up to a page")
	require.ErrorIs(t, ms.Store(base+PageSize, 8, 7), ErrFault)

	require.ErrorIs(t, ms.Mmap(base, PageSize, R|U), ErrOverlap)
	require.ErrorIs(t, ms.Mmap(base-PageSize, 2*PageSize, R|U), ErrOverlap)
	require.ErrorIs(t, ms.Mmap(base+1, PageSize, R|U), ErrUnaligned)
	require.ErrorIs(t, ms.Mmap(base+PageSize, PageSize, U), ErrPermission)
	require.ErrorIs(t, ms.Mmap(base+PageSize, 0, R|U), ErrRange)
	require.ErrorIs(t, ms.Mmap(UserTop-PageSize, 2*PageSize, R|U), ErrRange)
	require.ErrorIs(t, ms.Mmap(textBase, PageSize, R|U), ErrOverlap, "text is mapped")
	require.ErrorIs(t, ms.Mmap(base+PageSize, 1000*PageSize, R|U), ErrNoMemory)
	require.Len(t, ms.Regions(), 1)

	require.NoError(t, ms.Mmap(base+PageSize, 2*PageSize, R|U))
	used := a.InUse()

	// Partial unmaps fail without changing anything.
	require.ErrorIs(t, ms.Munmap(base, 2*PageSize), ErrNotMapped)
	require.ErrorIs(t, ms.Munmap(base+2*PageSize, PageSize), ErrNotMapped)
	require.ErrorIs(t, ms.Munmap(base, 4*PageSize), ErrNotMapped)
	require.ErrorIs(t, ms.Munmap(base+1, PageSize), ErrUnaligned)
	require.Equal(t, used, a.InUse())
	require.Len(t, ms.Regions(), 2)
	v, err := ms.Load(base+PageSize-8, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)

	// Adjacent regions can go together.
	require.NoError(t, ms.Munmap(base, 3*PageSize))
	require.Empty(t, ms.Regions())
	require.Equal(t, used-3, a.InUse())
	_, err = ms.Load(base, 8)
	require.ErrorIs(t, err, ErrFault)
	require.ErrorIs(t, ms.Munmap(base, PageSize), ErrNotMapped)
}

func TestChangeBrk(t *testing.T) {
	a, ms, _ := newTestSet(t, 64)
	bottom := ms.HeapBottom()
	used := a.InUse()

	old, err := ms.ChangeBrk(100)
	require.NoError(t, err)
	require.Equal(t, bottom, old)
	require.Equal(t, bottom+100, ms.Brk())
	require.NoError(t, ms.Store(bottom+92, 8, 1))
	require.Equal(t, used+1, a.InUse())

	old, err = ms.ChangeBrk(PageSize)
	require.NoError(t, err)
	require.Equal(t, bottom+100, old)
	require.Equal(t, used+2, a.InUse())

	old, err = ms.ChangeBrk(-PageSize - 100)
	require.NoError(t, err)
	require.Equal(t, bottom+PageSize+100, old)
	require.Equal(t, bottom, ms.Brk())
	require.Equal(t, used, a.InUse())
	require.ErrorIs(t, ms.Store(bottom, 8, 1), ErrFault)

	_, err = ms.ChangeBrk(-1)
	require.ErrorIs(t, err, ErrBreak)
	require.Equal(t, bottom, ms.Brk())

	// The heap cannot grow into an mmap region.
	require.NoError(t, ms.Mmap(bottom+PageSize, PageSize, R|U))
	_, err = ms.ChangeBrk(PageSize + 1)
	require.ErrorIs(t, err, ErrOverlap)
	require.Equal(t, bottom, ms.Brk())
	_, err = ms.ChangeBrk(PageSize)
	require.NoError(t, err)
}

func TestClone(t *testing.T) {
	a, ms, sp := newTestSet(t, 64)
	require.NoError(t, ms.Mmap(0x10000000, PageSize, R|W|U))
	_, err := ms.ChangeBrk(10)
	require.NoError(t, err)
	require.NoError(t, ms.Store(sp-8, 8, 1))
	ms.TrapFrame().X[10] = 5

	used := a.InUse()
	c, err := ms.Clone()
	require.NoError(t, err)
	require.Equal(t, 2*used-1, a.InUse(), "all but the trampoline should be copied")
	require.NotEqual(t, ms.Token(), c.Token())

	require.Equal(t, ms.Regions(), c.Regions())
	require.Equal(t, ms.Brk(), c.Brk())
	require.Equal(t, uint64(5), c.TrapFrame().X[10])

	require.NoError(t, c.Store(sp-8, 8, 2))
	v, err := ms.Load(sp-8, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v, "parent memory changed by child store")

	_, err = c.ChangeBrk(-10)
	require.NoError(t, err)
	require.Equal(t, ms.HeapBottom()+10, ms.Brk())

	c.Recycle()
	require.Equal(t, used, a.InUse())

	_, ms2, _ := newTestSet(t, 10)
	_, err = ms2.Clone()
	require.ErrorIs(t, err, ErrNoMemory)
}

// checkRegions verifies that the mmap regions are sorted and disjoint
// and that they match the page table exactly: every region page is
// mapped with the region's permissions, and nothing else in the mmap
// window is mapped.
func checkRegions(t *testing.T, ms *MemorySet, base uint64, window, basePages int) {
	t.Helper()
	regions := ms.Regions()
	require.Equal(t, len(regions), ms.regions.Len())
	pages := 0
	for i, r := range regions {
		require.True(t, Aligned(r.Start) && Aligned(r.End), "region %v unaligned", r)
		require.Less(t, r.Start, r.End)
		if i > 0 {
			require.LessOrEqual(t, regions[i-1].End, r.Start, "regions %v and %v overlap", regions[i-1], r)
		}
		for va := r.Start; va < r.End; va += PageSize {
			pte, ok := ms.PageTable().Translate(Floor(va))
			require.True(t, ok, "page %#x of %v not mapped", va, r)
			require.Equal(t, r.Perm, pte.Perm, "page %#x of %v", va, r)
			pages++
		}
	}
	require.Equal(t, basePages+pages, ms.PageTable().Len())

	for i := range window {
		va := base + uint64(i)*PageSize
		_, mapped := ms.PageTable().Translate(Floor(va))
		inRegion := ms.regions.Overlaps(va, va+PageSize)
		require.Equal(t, inRegion, mapped, "page %#x", va)
	}
}

func TestMmapSequences(t *testing.T) {
	const (
		base   = 0x10000000
		window = 16
	)
	perms := []Perm{R | U, R | W | U, R | X | U, R | W | X | U, U}
	for seed := range uint64(8) {
		_, ms, _ := newTestSet(t, 64)
		basePages := ms.PageTable().Len()
		r := rand.New(rand.NewPCG(seed, 1))
		mapped, unmapped := 0, 0
		for range 300 {
			before := ms.Regions()
			var err error
			if regions := ms.Regions(); len(regions) > 0 && r.IntN(3) == 0 {
				// Unmap a run of whole regions, which may not be adjacent.
				i := r.IntN(len(regions))
				j := i + r.IntN(min(3, len(regions)-i))
				err = ms.Munmap(regions[i].Start, regions[j].End-regions[i].Start)
				if err == nil {
					unmapped++
				}
			} else {
				start := base + uint64(r.IntN(window))*PageSize
				if r.IntN(10) == 0 {
					start++
				}
				length := uint64(r.IntN(4*PageSize) + 1)
				if r.IntN(2) == 0 {
					err = ms.Mmap(start, length, perms[r.IntN(len(perms))])
					if err == nil {
						mapped++
					}
				} else {
					err = ms.Munmap(start, length)
					if err == nil {
						unmapped++
					}
				}
			}
			if err != nil {
				require.Equal(t, before, ms.Regions(), "failed call changed the regions")
			}
			checkRegions(t, ms, base, window+4, basePages)
		}
		require.Positive(t, mapped, "seed %d", seed)
		require.Positive(t, unmapped, "seed %d", seed)
	}
}
