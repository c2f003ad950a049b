// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"rsc.io/rvkern/kernel"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want func(*Config)
	}{
		{"empty", ``, func(c *Config) {}},
		{
			"all",
			`
scheduler        = "round_robin"
big_stride       = 1000
default_priority = 4
quantum          = 50
frames           = 256
boot             = ["hello", "forktest"]
trace            = true
`,
			func(c *Config) {
				c.Scheduler = RoundRobin
				c.BigStride = 1000
				c.DefaultPriority = 4
				c.Quantum = 50
				c.Frames = 256
				c.Boot = []string{"hello", "forktest"}
				c.Trace = true
			},
		},
		{
			"expressions",
			`
frames  = 4 * mib / page_size
quantum = max(10, 2 * kib)
`,
			func(c *Config) {
				c.Frames = 1024
				c.Quantum = 2048
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.src), "test.hcl")
			require.NoError(t, err)
			want := Default()
			tt.want(want)
			if diff := cmp.Diff(want, c); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src string
		err string
	}{
		{`scheduler = "fifo"`, `unknown scheduler "fifo"`},
		{`default_priority = 1`, "default_priority 1 below 2"},
		{`quantum = 0`, "quantum must be positive"},
		{`frames = -1`, "frames must be positive"},
		{`big_stride = 0`, "big_stride must be positive"},
		{`boot = []`, "nothing to boot"},
		{`frames = 1.5`, "decode test.hcl"},
		{`color = "red"`, "decode test.hcl"},
		{`quantum = `, "parse test.hcl"},
		{`frames = gib`, "decode test.hcl"},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.src), "test.hcl")
		require.ErrorContains(t, err, tt.err, "%s", tt.src)
	}
}

func TestKernel(t *testing.T) {
	kc, err := Default().Kernel()
	require.NoError(t, err)
	require.Equal(t, kernel.Stride{BigStride: kernel.BigStride}, kc.Policy)
	require.Equal(t, int64(kernel.DefaultPriority), kc.DefaultPriority)
	_, ok := kc.Apps.Lookup("initproc")
	require.True(t, ok)

	c := Default()
	c.Scheduler = RoundRobin
	kc, err = c.Kernel()
	require.NoError(t, err)
	require.Equal(t, kernel.RoundRobin{}, kc.Policy)

	c.Boot = []string{"nope"}
	_, err = c.Kernel()
	require.ErrorContains(t, err, `no app "nope"`)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	apps := "-- hi --\n_start:\n\tli a0, 7\n\tli a7, 93\n\tecall\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine.txtar"), []byte(apps), 0o666))
	cfg := filepath.Join(dir, "boot.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte("boot = [\"hi\"]\napps = \"mine.txtar\"\n"), 0o666))

	c, err := Load(cfg)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "mine.txtar"), c.Apps)

	kc, err := c.Kernel()
	require.NoError(t, err)
	require.Equal(t, []string{"hi"}, kc.Apps.Names())

	m := kernel.New(kc)
	require.NoError(t, m.Boot(c.Boot...))
	m.Start()
	require.True(t, m.Halted())
	require.Equal(t, int32(7), m.Exits()[0].Code)

	_, err = Load(filepath.Join(dir, "missing.hcl"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
