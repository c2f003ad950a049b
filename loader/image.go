// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader turns application sources into loadable images.
//
// An application is RV64 assembly. Its text is mapped read-execute at
// the text base (0x10000 unless given) and its data read-write at the
// data base, by default the first page after the text.
package loader

import (
	"fmt"

	"rsc.io/rvkern/mm"
	"rsc.io/rvkern/rv"
)

const DefaultTextBase = 0x10000

// An Image is a program ready to be mapped into an address space.
type Image struct {
	Name     string
	Entry    uint64
	Segments []mm.Segment
}

// Size returns the number of bytes the image occupies in memory.
func (img *Image) Size() uint64 {
	var n uint64
	for _, seg := range img.Segments {
		n += mm.RoundUp(max(seg.MemSize, uint64(len(seg.Data))))
	}
	return n
}

// Build assembles src into an image named name. A zero text base means
// DefaultTextBase, and a zero data base means the page after the text.
func Build(name, src string, text, data uint64) (*Image, error) {
	if text == 0 {
		text = DefaultTextBase
	}
	if !mm.Aligned(text) || !mm.Aligned(data) {
		return nil, fmt.Errorf("%s: section base not page aligned", name)
	}
	place := data
	if place == 0 {
		// Text size does not depend on where data goes,
		// so a first pass with data far away finds it.
		place = mm.UserTop / 2
	}
	prog, err := rv.Assemble(src, text, place)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	if data == 0 {
		data = text + mm.RoundUp(uint64(len(prog.Text)))
		if data == text {
			data += mm.PageSize
		}
		prog, err = rv.Assemble(src, text, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", name, err)
		}
	}
	if len(prog.Text) == 0 {
		return nil, fmt.Errorf("%s: no text", name)
	}
	img := &Image{
		Name:  name,
		Entry: prog.Entry,
		Segments: []mm.Segment{
			{Vaddr: text, Perm: mm.R | mm.X, Data: prog.Text},
		},
	}
	if len(prog.Data) > 0 {
		img.Segments = append(img.Segments, mm.Segment{Vaddr: data, Perm: mm.R | mm.W, Data: prog.Data})
	}
	return img, nil
}
