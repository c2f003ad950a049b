// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mm

import "fmt"

// A PTE is a valid page table entry.
type PTE struct {
	Frame *Frame
	Perm  Perm
}

// A PageTable maps virtual pages of one address space to frames.
// It owns only its root frame; mapped frames belong to the caller.
type PageTable struct {
	root    *Frame
	entries map[VPN]PTE
}

func newPageTable(a *FrameAllocator) (*PageTable, error) {
	root, err := a.Alloc()
	if err != nil {
		return nil, err
	}
	return &PageTable{root: root, entries: make(map[VPN]PTE)}, nil
}

// Token returns the satp value that selects this table (Sv39 mode).
func (pt *PageTable) Token() uint64 {
	return 8<<60 | uint64(pt.root.ppn)
}

// Map maps vpn to f. Mapping a page that is already mapped panics.
func (pt *PageTable) Map(vpn VPN, f *Frame, perm Perm) {
	if _, ok := pt.entries[vpn]; ok {
		panic(fmt.Sprintf("mm: page %#x mapped twice", vpn))
	}
	pt.entries[vpn] = PTE{f, perm}
}

// Unmap removes the mapping of vpn, which must exist.
func (pt *PageTable) Unmap(vpn VPN) {
	if _, ok := pt.entries[vpn]; !ok {
		panic(fmt.Sprintf("mm: unmap of unmapped page %#x", vpn))
	}
	delete(pt.entries, vpn)
}

// Translate returns the entry for vpn and whether it is mapped.
func (pt *PageTable) Translate(vpn VPN) (PTE, bool) {
	pte, ok := pt.entries[vpn]
	return pte, ok
}

// anyMapped reports whether a page in [start, end) is mapped.
func (pt *PageTable) anyMapped(start, end VPN) bool {
	for v := start; v < end; v++ {
		if _, ok := pt.entries[v]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of mapped pages.
func (pt *PageTable) Len() int { return len(pt.entries) }
