// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

/*
 * tunable variables
 */
const (
	BigStride       = 1 << 16 /* stride numerator */
	DefaultPriority = 16      /* priority of a new task */
	MinPriority     = 2       /* lowest priority set_priority accepts */
	Quantum         = 1000    /* instructions per timer tick */
	Frames          = 8192    /* physical frames, 32 MiB */
	MaxString       = 256     /* longest path passed to exec or spawn */
)

/*
 * system call numbers
 * fixed by the user ABI
 */
const (
	SYS_WRITE        = 64
	SYS_EXIT         = 93
	SYS_YIELD        = 124
	SYS_SET_PRIORITY = 140
	SYS_GET_TIME     = 169
	SYS_GETPID       = 172
	SYS_SBRK         = 214
	SYS_MUNMAP       = 215
	SYS_FORK         = 220
	SYS_EXEC         = 221
	SYS_MMAP         = 222
	SYS_WAITPID      = 260
	SYS_SPAWN        = 400
	SYS_TASK_INFO    = 410

	MaxSyscallNum = 500
)

/*
 * exit codes of tasks killed by the kernel
 */
const (
	ExitFault   = -2 /* bad memory access */
	ExitIllegal = -3 /* illegal instruction */
)

/*
 * trap frame setup
 */
const (
	kernelSatp  = 8<<60 | 0x80200 /* kernel page table token */
	trapHandler = 0x80201000      /* kernel trap handler entry */
)
