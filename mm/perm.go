// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mm

import (
	"errors"
	"strings"
)

// Perm is the set of access bits of a mapping, laid out as in a page
// table entry.
type Perm uint8

const (
	R Perm = 1 << 1
	W Perm = 1 << 2
	X Perm = 1 << 3
	U Perm = 1 << 4
)

func (p Perm) String() string {
	var b strings.Builder
	for _, f := range []struct {
		bit  Perm
		name byte
	}{{R, 'r'}, {W, 'w'}, {X, 'x'}, {U, 'u'}} {
		if p&f.bit != 0 {
			b.WriteByte(f.name)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// ProtFromBits converts the prot argument of mmap, in which bit 0 means
// readable, bit 1 writable and bit 2 executable, into user permissions.
// Any other bit set, or no bit at all, is an error.
func ProtFromBits(prot uint64) (Perm, error) {
	if prot&^7 != 0 || prot&7 == 0 {
		return 0, ErrPermission
	}
	p := U
	if prot&1 != 0 {
		p |= R
	}
	if prot&2 != 0 {
		p |= W
	}
	if prot&4 != 0 {
		p |= X
	}
	return p, nil
}

var (
	ErrUnaligned  = errors.New("address not page aligned")
	ErrPermission = errors.New("invalid permission bits")
	ErrRange      = errors.New("range outside user space")
	ErrOverlap    = errors.New("range overlaps an existing mapping")
	ErrNotMapped  = errors.New("range does not match mapped regions")
	ErrNoMemory   = errors.New("out of physical frames")
	ErrFault      = errors.New("bad user address")
	ErrBreak      = errors.New("program break out of range")
)
