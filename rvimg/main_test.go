// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rsc.io/rvkern/loader"
)

const exit7 = "_start:\n\tli a0, 7\n\tli a7, 93\n\tecall\n"

func TestPackExtract(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seven.s"), []byte(exit7), 0o666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "high.s"), []byte("#: text=0x20000\n"+exit7), 0o666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o666))

	data, err := pack(dir)
	require.NoError(t, err)
	require.Equal(t, "-- high text=0x20000 --\n"+exit7+"-- seven --\n"+exit7, string(data))

	a, err := loader.Parse(data)
	require.NoError(t, err)
	img, ok := a.Lookup("high")
	require.True(t, ok)
	require.Equal(t, uint64(0x20000), img.Entry)

	out := filepath.Join(t.TempDir(), "apps")
	require.NoError(t, extract(data, out))
	src, err := os.ReadFile(filepath.Join(out, "high.s"))
	require.NoError(t, err)
	require.Equal(t, "#: text=0x20000\n"+exit7, string(src))

	again, err := pack(out)
	require.NoError(t, err)
	require.Equal(t, string(data), string(again))
}

func TestPackErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := pack(dir)
	require.ErrorContains(t, err, "no .s files")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.s"), []byte("_start:\n\tfrob a0\n"), 0o666))
	_, err = pack(dir)
	require.Error(t, err)
}

func TestList(t *testing.T) {
	var b strings.Builder
	require.NoError(t, list(&b, []byte("-- seven --\n"+exit7)))
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "NAME"))
	require.Contains(t, lines[1], "seven")
	require.Contains(t, lines[1], "0x10000")
	require.Contains(t, lines[1], "0x10000/r-x-")
}
