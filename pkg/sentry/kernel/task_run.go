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

	"teachos.dev/uspace/pkg/abi/linux"
)

// Run moves a Ready task to Running. The first call records the time
// reported by task_info as the task's start.
func (t *Task) Run() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != linux.TaskReady {
		return fmt.Errorf("task %v cannot run from state %v", t, t.status)
	}
	if !t.started {
		t.started = true
		t.startTime = t.k.clock.Now()
	}
	t.status = linux.TaskRunning
	return nil
}

// Yield moves a Running task back to Ready.
func (t *Task) Yield() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != linux.TaskRunning {
		return fmt.Errorf("task %v cannot yield from state %v", t, t.status)
	}
	t.status = linux.TaskReady
	return nil
}

// Exit marks t Exited with the given code and tears down its address space.
// Exiting an exited task has no effect.
func (t *Task) Exit(code int32) {
	t.mu.Lock()
	if t.status == linux.TaskExited {
		t.mu.Unlock()
		return
	}
	t.status = linux.TaskExited
	t.exitCode = code
	t.mu.Unlock()

	t.mm.Release(t)
	t.Debugf("exited with code %d", code)
}

// Info returns t's task_info record. Time is the number of milliseconds
// since t first ran, or 0 if it never has.
func (t *Task) Info() linux.TaskInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	info := linux.TaskInfo{
		Status:       t.status,
		SyscallTimes: t.syscallTimes,
	}
	if t.started {
		if d := t.k.clock.Now().Sub(t.startTime); d > 0 {
			info.Time = uint64(d.Milliseconds())
		}
	}
	return info
}

// SyscallCount returns how many times syscall sysno was dispatched for t.
func (t *Task) SyscallCount(sysno uintptr) uint32 {
	if sysno >= linux.MaxSyscallNum {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.syscallTimes[sysno]
}
