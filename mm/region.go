// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mm

import (
	"fmt"
	"slices"
)

// A Region is a page-aligned range [Start, End) created by mmap.
type Region struct {
	Start, End uint64
	Perm       Perm
}

func (r Region) String() string {
	return fmt.Sprintf("%#x-%#x %v", r.Start, r.End, r.Perm)
}

// Regions is the set of live mmap regions of one address space,
// kept sorted and pairwise disjoint.
type Regions struct {
	list []Region
}

// search returns the index of the first region ending after addr.
func (rs *Regions) search(addr uint64) int {
	i, _ := slices.BinarySearchFunc(rs.list, addr, func(r Region, addr uint64) int {
		if r.End <= addr {
			return -1
		}
		return +1
	})
	return i
}

// Overlaps reports whether any region intersects [start, end).
func (rs *Regions) Overlaps(start, end uint64) bool {
	i := rs.search(start)
	return i < len(rs.list) && rs.list[i].Start < end
}

// Insert adds r, which must not overlap any existing region.
func (rs *Regions) Insert(r Region) {
	if r.Start >= r.End || rs.Overlaps(r.Start, r.End) {
		panic(fmt.Sprintf("mm: bad region insert %v", r))
	}
	i := rs.search(r.Start)
	rs.list = slices.Insert(rs.list, i, r)
}

// Cover finds the regions that exactly tile [start, end), returning
// them as the index range [i, j). A gap, or a region that extends
// past either end, is ErrNotMapped.
func (rs *Regions) Cover(start, end uint64) (i, j int, err error) {
	i = rs.search(start)
	pos := start
	for j = i; pos < end; j++ {
		if j >= len(rs.list) || rs.list[j].Start != pos || rs.list[j].End > end {
			return 0, 0, ErrNotMapped
		}
		pos = rs.list[j].End
	}
	if j == i {
		return 0, 0, ErrNotMapped
	}
	return i, j, nil
}

// Delete removes the regions with index in [i, j).
func (rs *Regions) Delete(i, j int) {
	rs.list = slices.Delete(rs.list, i, j)
}

// All returns a copy of the regions in address order.
func (rs *Regions) All() []Region { return slices.Clone(rs.list) }

// Len returns the number of regions.
func (rs *Regions) Len() int { return len(rs.list) }

func (rs *Regions) clone() Regions { return Regions{list: slices.Clone(rs.list)} }
