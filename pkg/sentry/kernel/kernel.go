// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kernel provides an emulation of the parts of a kernel that own
// user address spaces.
//
// A Kernel holds the state shared by all tasks: the frame allocator, the
// clock and the syscall table. A Task is one schedulable unit with its own
// address space and syscall accounting. Operations on behalf of a task take
// the Task itself as their context, so no global notion of the current task
// exists.
//
// Lock order:
//
//	Kernel.mu
//	  Task.mu
//	    mm.MemoryManager.mu
//	      pgalloc.MemoryFile.mu
package kernel

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"teachos.dev/uspace/pkg/context"
	"teachos.dev/uspace/pkg/log"
	"teachos.dev/uspace/pkg/sentry/ktime"
	"teachos.dev/uspace/pkg/sentry/mm"
	"teachos.dev/uspace/pkg/sentry/pgalloc"
)

// ThreadID is a task identifier.
type ThreadID int32

// Kernel represents an emulated kernel.
type Kernel struct {
	// The following fields are immutable after New.
	mf      *pgalloc.MemoryFile
	clock   ktime.Clock
	mmOpts  mm.Opts
	st      *SyscallTable
	console io.Writer
	logger  log.Logger

	// consoleMu serializes writes to console.
	consoleMu sync.Mutex

	// mu protects the fields below.
	mu sync.Mutex

	// tasks holds every task created by NewTask, exited ones included.
	tasks map[ThreadID]*Task

	// nextTID is the ID assigned to the next task.
	nextTID ThreadID
}

// InitKernelArgs holds arguments to New.
type InitKernelArgs struct {
	// MemoryFile provides frames to every address space. It is required.
	MemoryFile *pgalloc.MemoryFile

	// Clock is the time source for get_time and task_info. If nil, a
	// ktime.HostClock starting now is used.
	Clock ktime.Clock

	// MMOpts configures each new task's address space.
	MMOpts mm.Opts

	// SyscallTable dispatches syscalls. It is required.
	SyscallTable *SyscallTable

	// Console receives the output of write. If nil, output is discarded.
	Console io.Writer

	// Logger is where tasks log. If nil, the global logger is used.
	Logger log.Logger
}

// New returns a Kernel configured by args.
func New(args InitKernelArgs) (*Kernel, error) {
	if args.MemoryFile == nil {
		return nil, fmt.Errorf("kernel requires a MemoryFile")
	}
	if args.SyscallTable == nil {
		return nil, fmt.Errorf("kernel requires a SyscallTable")
	}
	k := &Kernel{
		mf:      args.MemoryFile,
		clock:   args.Clock,
		mmOpts:  args.MMOpts,
		st:      args.SyscallTable,
		console: args.Console,
		logger:  args.Logger,
		tasks:   make(map[ThreadID]*Task),
		nextTID: 1,
	}
	if k.clock == nil {
		k.clock = ktime.NewHostClock()
	}
	if k.console == nil {
		k.console = io.Discard
	}
	if k.logger == nil {
		k.logger = context.Background()
	}
	k.st.Init()
	return k, nil
}

// NewTask creates a task with an empty address space, in the Ready state.
func (k *Kernel) NewTask(name string) (*Task, error) {
	m, err := mm.NewMemoryManager(k.mf, k.mmOpts)
	if err != nil {
		return nil, fmt.Errorf("creating address space for %q: %w", name, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	tid := k.nextTID
	k.nextTID++
	t := newTask(k, tid, name, m)
	k.tasks[tid] = t
	t.Debugf("created with heap base %v", m.HeapBase())
	return t, nil
}

// TaskWithID returns the task with the given ID, or nil.
func (k *Kernel) TaskWithID(tid ThreadID) *Task {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tasks[tid]
}

// Tasks returns every task, in ID order.
func (k *Kernel) Tasks() []*Task {
	k.mu.Lock()
	defer k.mu.Unlock()
	ts := make([]*Task, 0, len(k.tasks))
	for _, t := range k.tasks {
		ts = append(ts, t)
	}
	slices.SortFunc(ts, func(a, b *Task) int {
		return int(a.tid) - int(b.tid)
	})
	return ts
}

// Release exits every task that has not exited, returning all frames held
// by address spaces to the MemoryFile.
func (k *Kernel) Release() {
	for _, t := range k.Tasks() {
		t.Exit(0)
	}
}

// MemoryFile returns the frame allocator shared by all tasks.
func (k *Kernel) MemoryFile() *pgalloc.MemoryFile {
	return k.mf
}

// Clock returns the kernel's time source.
func (k *Kernel) Clock() ktime.Clock {
	return k.clock
}

// SyscallTable returns the kernel's syscall table.
func (k *Kernel) SyscallTable() *SyscallTable {
	return k.st
}

// WriteConsole writes b to the console as a single unit.
func (k *Kernel) WriteConsole(b []byte) (int, error) {
	k.consoleMu.Lock()
	defer k.consoleMu.Unlock()
	return k.console.Write(b)
}
