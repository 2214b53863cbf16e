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

package linux

import (
	"teachos.dev/uspace/pkg/sentry/arch"
	"teachos.dev/uspace/pkg/sentry/kernel"
	"teachos.dev/uspace/pkg/usermem"
)

// TaskInfo implements task_info(ti). The record includes this call in its
// syscall counts.
func TaskInfo(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, error) {
	addr := args[0].Pointer()

	info := t.Info()
	if _, err := usermem.CopyObjectOut(t, t.MemoryManager(), addr, &info, usermem.IOOpts{}); err != nil {
		return 0, err
	}
	return 0, nil
}

// Exit implements exit(code).
func Exit(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, error) {
	t.Exit(args[0].Int())
	return 0, nil
}

// SchedYield implements yield(). The task becomes Ready; picking the next
// task to run is up to the caller.
func SchedYield(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, error) {
	return 0, t.Yield()
}
