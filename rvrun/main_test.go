// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteLines(t *testing.T) {
	var b strings.Builder
	writeLines(&b, "PID  APP\n0    initproc\n", 6)
	require.Equal(t, "PID  A\n0    i\n", b.String())

	b.Reset()
	writeLines(&b, "0    initproc\n", 0)
	require.Equal(t, "0    initproc\n", b.String())
}
