// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mm

import (
	"encoding/binary"
	"fmt"

	"rsc.io/rvkern/rv"
)

var _ rv.Memory = (*MemorySet)(nil)

// A FaultError records a user access that did not translate.
type FaultError struct {
	Addr uint64
	Need Perm
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("bad user address %#x (need %v)", e.Addr, e.Need)
}

func (e *FaultError) Unwrap() error { return ErrFault }

// page returns the rest of the page holding va, if it is mapped
// with every permission in need.
func (ms *MemorySet) page(va uint64, need Perm) ([]byte, error) {
	if va >= MaxVA {
		return nil, &FaultError{va, need}
	}
	pte, ok := ms.pt.Translate(Floor(va))
	if !ok || pte.Perm&need != need {
		return nil, &FaultError{va, need}
	}
	return pte.Frame.Data[PageOffset(va):], nil
}

// UserBuffers translates the user range [va, va+n) into the frame
// slices backing it, checking every page before returning any.
func (ms *MemorySet) UserBuffers(va uint64, n int, write bool) ([][]byte, error) {
	need := R | U
	if write {
		need = W | U
	}
	var bufs [][]byte
	for n > 0 {
		b, err := ms.page(va, need)
		if err != nil {
			return nil, err
		}
		b = b[:min(n, len(b))]
		bufs = append(bufs, b)
		va += uint64(len(b))
		n -= len(b)
	}
	return bufs, nil
}

// CopyIn copies len(dst) bytes from user address va.
func (ms *MemorySet) CopyIn(dst []byte, va uint64) error {
	bufs, err := ms.UserBuffers(va, len(dst), false)
	if err != nil {
		return err
	}
	for _, b := range bufs {
		dst = dst[copy(dst, b):]
	}
	return nil
}

// CopyOut copies src to user address va. Nothing is written unless
// the whole destination is mapped writable.
func (ms *MemorySet) CopyOut(va uint64, src []byte) error {
	bufs, err := ms.UserBuffers(va, len(src), true)
	if err != nil {
		return err
	}
	for _, b := range bufs {
		src = src[copy(b, src):]
	}
	return nil
}

// ReadString reads a NUL-terminated string of at most limit bytes
// from user address va.
func (ms *MemorySet) ReadString(va uint64, limit int) (string, error) {
	var s []byte
	for len(s) < limit {
		b, err := ms.page(va, R|U)
		if err != nil {
			return "", err
		}
		for _, c := range b {
			if c == 0 {
				return string(s), nil
			}
			s = append(s, c)
			if len(s) == limit {
				break
			}
		}
		va += uint64(len(b))
	}
	return "", fmt.Errorf("string at %#x longer than %d bytes", va, limit)
}

// Fetch implements rv.Memory for instruction fetches by user code.
func (ms *MemorySet) Fetch(addr uint64) (uint32, error) {
	b, err := ms.page(addr, X|U)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Load implements rv.Memory for user loads.
func (ms *MemorySet) Load(addr uint64, size int) (uint64, error) {
	var buf [8]byte
	if err := ms.CopyIn(buf[:size], addr); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Store implements rv.Memory for user stores.
func (ms *MemorySet) Store(addr uint64, size int, val uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	return ms.CopyOut(addr, buf[:size])
}
