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
	"teachos.dev/uspace/pkg/abi/linux"
	"teachos.dev/uspace/pkg/errors/mmerr"
	"teachos.dev/uspace/pkg/log"
	"teachos.dev/uspace/pkg/sentry/arch"
)

// SyscallFailed is the value returned to the task by a failed syscall.
const SyscallFailed = -1

// Syscall executes syscall sysno on behalf of t and returns the value left
// in the return register: the implementation's result, or SyscallFailed.
//
// Every syscall number below linux.MaxSyscallNum is counted before the
// implementation runs, including numbers with no implementation.
func (t *Task) Syscall(sysno uintptr, args arch.SyscallArguments) int64 {
	t.mu.Lock()
	status := t.status
	if status == linux.TaskRunning && sysno < linux.MaxSyscallNum {
		t.syscallTimes[sysno]++
	}
	t.mu.Unlock()
	if status != linux.TaskRunning {
		t.Warningf("%s called in state %v", linux.SyscallName(sysno), status)
		return SyscallFailed
	}

	sc := t.k.st.Lookup(sysno)
	if sc == nil {
		t.Warningf("unsupported syscall %s(%s)", linux.SyscallName(sysno), args.Format(3))
		return SyscallFailed
	}
	rval, err := sc.Fn(t, sysno, args)
	if err != nil {
		if t.IsLogging(log.Debug) {
			t.Debugf("%s(%s) = -1 (%v: %v)", sc.Name, args.Format(sc.Args), mmerr.ToUnix(err), err)
		}
		return SyscallFailed
	}
	if t.IsLogging(log.Debug) {
		t.Debugf("%s(%s) = %#x", sc.Name, args.Format(sc.Args), rval)
	}
	return int64(rval)
}
