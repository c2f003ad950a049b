// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import "fmt"

// A Policy chooses the next task to run.
type Policy interface {
	// Pick returns the index in tasks of the next task to run,
	// or -1 if no task is Ready. The scan is cyclic and begins
	// just after index last.
	Pick(tasks []*TCB, last int) int

	// Admit sets up the scheduling state of a task joining tasks.
	Admit(tasks []*TCB, t *TCB)

	// Dispatched records that t has been given the processor.
	Dispatched(t *TCB)
}

// RoundRobin runs Ready tasks in turn.
type RoundRobin struct{}

func (RoundRobin) Pick(tasks []*TCB, last int) int {
	for j := range tasks {
		i := (last + 1 + j) % len(tasks)
		if tasks[i].status == Ready {
			return i
		}
	}
	return -1
}

func (RoundRobin) Admit(tasks []*TCB, t *TCB) {}
func (RoundRobin) Dispatched(t *TCB)          {}

// Stride is stride scheduling: each dispatch advances a task's pass by
// BigStride/priority and the Ready task with the lowest pass runs next,
// so a task's share of turns is proportional to its priority.
// Ties go to the first task in cyclic order.
type Stride struct {
	BigStride uint64
}

func (s Stride) Pick(tasks []*TCB, last int) int {
	best := -1
	for j := range tasks {
		i := (last + 1 + j) % len(tasks)
		t := tasks[i]
		if t.status != Ready {
			continue
		}
		if best < 0 || t.pass < tasks[best].pass {
			best = i
		}
	}
	return best
}

// Admit starts t at the lowest pass among tasks, so that it neither
// waits behind nor jumps ahead of tasks that have been running.
func (s Stride) Admit(tasks []*TCB, t *TCB) {
	t.pass = 0
	for i, t1 := range tasks {
		if i == 0 || t1.pass < t.pass {
			t.pass = t1.pass
		}
	}
}

func (s Stride) Dispatched(t *TCB) {
	if t.priority < MinPriority {
		panic(fmt.Sprintf("kernel: task %v has priority %d", t, t.priority))
	}
	t.pass += max(s.BigStride/uint64(t.priority), 1)
}
