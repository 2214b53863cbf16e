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

package kernel

import (
	"fmt"
	"sync"
	"time"

	"teachos.dev/uspace/pkg/abi/linux"
	"teachos.dev/uspace/pkg/context"
	"teachos.dev/uspace/pkg/log"
	"teachos.dev/uspace/pkg/sentry/ktime"
	"teachos.dev/uspace/pkg/sentry/mm"
	"teachos.dev/uspace/pkg/sentry/pgalloc"
)

// Task represents a single schedulable unit with its own address space.
//
// Task implements context.Context, so it is passed to every operation
// performed on its behalf.
type Task struct {
	// The following fields are immutable.
	k         *Kernel
	tid       ThreadID
	name      string
	logPrefix string

	// mu protects the fields below.
	mu sync.Mutex

	// status is the task's scheduling state.
	status linux.TaskStatus

	// syscallTimes counts dispatched syscalls by number.
	syscallTimes [linux.MaxSyscallNum]uint32

	// started is set the first time the task runs, at startTime.
	started   bool
	startTime ktime.Time

	// exitCode is valid once status is TaskExited.
	exitCode int32

	// mm is the task's address space. It is emptied, not cleared, on exit.
	mm *mm.MemoryManager
}

func newTask(k *Kernel, tid ThreadID, name string, m *mm.MemoryManager) *Task {
	return &Task{
		k:         k,
		tid:       tid,
		name:      name,
		logPrefix: fmt.Sprintf("[%d:%s] ", tid, name),
		status:    linux.TaskReady,
		mm:        m,
	}
}

// Kernel returns the Kernel containing t.
func (t *Task) Kernel() *Kernel {
	return t.k
}

// ThreadID returns t's ID.
func (t *Task) ThreadID() ThreadID {
	return t.tid
}

// Name returns t's name.
func (t *Task) Name() string {
	return t.name
}

// MemoryManager returns t's address space.
func (t *Task) MemoryManager() *mm.MemoryManager {
	return t.mm
}

// Status returns t's scheduling state.
func (t *Task) Status() linux.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// ExitCode returns the code t exited with, and whether it has exited.
func (t *Task) ExitCode() (int32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exitCode, t.status == linux.TaskExited
}

// String implements fmt.Stringer.
func (t *Task) String() string {
	return fmt.Sprintf("%d:%s", t.tid, t.name)
}

// Deadline implements context.Context.Deadline.
func (*Task) Deadline() (time.Time, bool) {
	return time.Time{}, false
}

// Done implements context.Context.Done.
func (*Task) Done() <-chan struct{} {
	return nil
}

// Err implements context.Context.Err.
func (*Task) Err() error {
	return nil
}

// Value implements context.Context.Value.
func (t *Task) Value(key any) any {
	switch key {
	case CtxKernel:
		return t.k
	case CtxTask:
		return t
	case pgalloc.CtxMemoryFile:
		return t.k.mf
	default:
		return nil
	}
}

var _ context.Context = (*Task)(nil)

// Debugf logs at the debug level, prefixed with the task's identity.
func (t *Task) Debugf(format string, v ...any) {
	if t.k.logger.IsLogging(log.Debug) {
		t.k.logger.Debugf(t.logPrefix+format, v...)
	}
}

// Infof logs at the info level, prefixed with the task's identity.
func (t *Task) Infof(format string, v ...any) {
	if t.k.logger.IsLogging(log.Info) {
		t.k.logger.Infof(t.logPrefix+format, v...)
	}
}

// Warningf logs at the warning level, prefixed with the task's identity.
func (t *Task) Warningf(format string, v ...any) {
	if t.k.logger.IsLogging(log.Warning) {
		t.k.logger.Warningf(t.logPrefix+format, v...)
	}
}

// IsLogging implements log.Logger.IsLogging.
func (t *Task) IsLogging(level log.Level) bool {
	return t.k.logger.IsLogging(level)
}
