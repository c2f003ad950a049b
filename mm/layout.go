// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mm implements per-task address spaces on top of a simulated
// Sv39-style page table: frame allocation, program segments, the user
// stack and heap, memory-mapped regions, and the translation of user
// pointers that every pointer-taking system call goes through.
package mm

/*
 * layout constants
 * cannot be changed
 */
const (
	PageBits = 12
	PageSize = 1 << PageBits

	MaxVA         = 1 << 38               /* top of the simulated address space */
	Trampoline    = MaxVA - PageSize      /* trap entry code, shared by all tasks */
	TrapContext   = Trampoline - PageSize /* per-task trap frame page */
	UserTop       = TrapContext           /* user mappings end here */
	UserStackSize = 2 * PageSize          /* user stack, above a guard page */
	KernelStack   = 2 * PageSize          /* kernel stack per task */
)

// A VPN is a virtual page number.
type VPN uint64

// Floor returns the page containing va.
func Floor(va uint64) VPN { return VPN(va >> PageBits) }

// Ceil returns the first page at or above va.
func Ceil(va uint64) VPN { return VPN((va + PageSize - 1) >> PageBits) }

// Addr returns the first address of the page.
func (v VPN) Addr() uint64 { return uint64(v) << PageBits }

// Aligned reports whether va is on a page boundary.
func Aligned(va uint64) bool { return va&(PageSize-1) == 0 }

// PageOffset returns the offset of va within its page.
func PageOffset(va uint64) uint64 { return va & (PageSize - 1) }

// RoundUp rounds n up to a whole number of pages.
func RoundUp(n uint64) uint64 { return (n + PageSize - 1) &^ (PageSize - 1) }

// KernelStackRange returns the kernel stack of the task with the given
// pid. Stacks sit below the kernel's trampoline mapping and are
// separated by an unmapped guard page.
func KernelStackRange(pid int) (bottom, top uint64) {
	top = Trampoline - uint64(pid)*(KernelStack+PageSize)
	return top - KernelStack, top
}
