// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import "time"

// A Clock is the monotonic time source of the kernel.
type Clock interface {
	// Now returns the time since boot.
	Now() time.Duration
}

type wallClock struct{ boot time.Time }

func (c wallClock) Now() time.Duration { return time.Since(c.boot) }

// A FakeClock is a Clock that only moves when told to.
type FakeClock struct {
	T time.Duration
}

func (c *FakeClock) Now() time.Duration { return c.T }

func (c *FakeClock) Advance(d time.Duration) { c.T += d }
