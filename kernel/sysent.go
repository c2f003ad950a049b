// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

var sysent [MaxSyscallNum]sysentry

// A sysentry describes one system call. In name, each verb before ')'
// renders an argument: %d signed, %x hex, %s a string pointer, and %q a
// pointer and length pair. A %d after ')' renders the result.
type sysentry struct {
	args int
	name string
	impl func(*TCB) int64
}

func init() {
	sysent = [MaxSyscallNum]sysentry{
		SYS_WRITE:        {3, "write(%d, %q) = %d", syswrite},
		SYS_EXIT:         {1, "exit(%d)", sysexit},
		SYS_YIELD:        {0, "yield() = %d", sysyield},
		SYS_SET_PRIORITY: {1, "set_priority(%d) = %d", syssetpriority},
		SYS_GET_TIME:     {1, "get_time(%x) = %d", sysgettime},
		SYS_GETPID:       {0, "getpid() = %d", sysgetpid},
		SYS_SBRK:         {1, "sbrk(%d) = %x", syssbrk},
		SYS_MUNMAP:       {2, "munmap(%x, %x) = %d", sysmunmap},
		SYS_FORK:         {0, "fork() = %d", sysfork},
		SYS_EXEC:         {1, "exec(%s) = %d", sysexec},
		SYS_MMAP:         {3, "mmap(%x, %x, %d) = %d", sysmmap},
		SYS_WAITPID:      {2, "waitpid(%d, %x) = %d", syswaitpid},
		SYS_SPAWN:        {1, "spawn(%s) = %d", sysspawn},
		SYS_TASK_INFO:    {1, "task_info(%x) = %d", systaskinfo},
	}
}
