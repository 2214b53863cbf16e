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

// Package linux provides the syscall table and implementations of the
// teaching kernel's syscall API.
package linux

import (
	"teachos.dev/uspace/pkg/abi/linux"
	"teachos.dev/uspace/pkg/sentry/kernel"
	"teachos.dev/uspace/pkg/sentry/syscalls"
)

// RISCV64 is the table of supported syscalls, numbered as on riscv64 Linux.
var RISCV64 = &kernel.SyscallTable{
	Table: map[uintptr]kernel.Syscall{
		linux.SYS_WRITE:     syscalls.Supported("write", 3, Write),
		linux.SYS_EXIT:      syscalls.Supported("exit", 1, Exit),
		linux.SYS_YIELD:     syscalls.Supported("yield", 0, SchedYield),
		linux.SYS_GET_TIME:  syscalls.Supported("get_time", 2, GetTime),
		linux.SYS_SBRK:      syscalls.Supported("sbrk", 1, Sbrk),
		linux.SYS_MUNMAP:    syscalls.Supported("munmap", 2, Munmap),
		linux.SYS_MMAP:      syscalls.Supported("mmap", 3, Mmap),
		linux.SYS_TASK_INFO: syscalls.Supported("task_info", 1, TaskInfo),
	},
}
