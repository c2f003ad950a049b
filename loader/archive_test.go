// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"rsc.io/rvkern/mm"
)

func TestDefault(t *testing.T) {
	a := Default()
	want := []string{
		"exit_code", "fault", "forktest", "hello", "initproc", "mmap", "sbrk",
		"spawn", "stride_10", "stride_2", "stride_5", "task_info", "usertests",
	}
	if diff := cmp.Diff(want, a.Names()); diff != "" {
		t.Fatalf("Names() mismatch (-want +got):\n%s", diff)
	}
	for _, name := range a.Names() {
		img, ok := a.Lookup(name)
		require.True(t, ok)
		require.Equal(t, name, img.Name)
		require.Equal(t, uint64(DefaultTextBase), img.Entry, "%s: entry", name)
		text := img.Segments[0]
		require.Equal(t, mm.R|mm.X, text.Perm)
		if len(img.Segments) > 1 {
			data := img.Segments[1]
			require.Equal(t, mm.R|mm.W, data.Perm)
			require.Equal(t, text.Vaddr+mm.RoundUp(uint64(len(text.Data))), data.Vaddr, "%s: data follows text", name)
		}
	}
	_, ok := a.Lookup("no_such_app")
	require.False(t, ok)
}

func TestParse(t *testing.T) {
	a, err := Parse([]byte(`comment
-- one text=0x20000 data=0x40000 --
	la a0, msg
	ecall
	.data
msg:
	.asciz "x"
-- two --
	ecall
`))
	require.NoError(t, err)
	img, ok := a.Lookup("one")
	require.True(t, ok)
	require.Equal(t, uint64(0x20000), img.Entry)
	require.Len(t, img.Segments, 2)
	require.Equal(t, uint64(0x40000), img.Segments[1].Vaddr)
	require.Equal(t, []byte("x\x00"), img.Segments[1].Data)
	require.Equal(t, uint64(2*mm.PageSize), img.Size())

	img, ok = a.Lookup("two")
	require.True(t, ok)
	require.Len(t, img.Segments, 1)
	require.Equal(t, []string{"one", "two"}, a.Names())
}

func TestParseErrors(t *testing.T) {
	for _, ar := range []string{
		"-- a text --\necall\n",
		"-- a text=zz --\necall\n",
		"-- a bss=4 --\necall\n",
		"-- a text=0x10001 --\necall\n",
		"-- a --\nfrob\n",
		"-- a --\n",
		"-- a --\necall\n-- a --\necall\n",
	} {
		_, err := Parse([]byte(ar))
		require.Error(t, err, "Parse(%q)", ar)
	}
}

func TestParseHeader(t *testing.T) {
	name, text, data, err := ParseHeader("app text=0x30000 data=65536")
	require.NoError(t, err)
	require.Equal(t, "app", name)
	require.Equal(t, uint64(0x30000), text)
	require.Equal(t, uint64(0x10000), data)
}
