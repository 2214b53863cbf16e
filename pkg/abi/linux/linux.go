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

// Package linux contains the constants and types of the syscall boundary:
// syscall numbers, mmap protection bits and the fixed-layout records
// written into user memory.
package linux

import (
	"fmt"
)

// Syscall numbers. Values follow the RISC-V Linux numbering; task_info is
// an extension with no Linux counterpart.
const (
	SYS_WRITE     = 64
	SYS_EXIT      = 93
	SYS_YIELD     = 124
	SYS_GET_TIME  = 169
	SYS_SBRK      = 214
	SYS_MUNMAP    = 215
	SYS_MMAP      = 222
	SYS_TASK_INFO = 410
)

// MaxSyscallNum bounds syscall numbers. Per-task syscall counters are
// indexed by syscall number and only numbers below MaxSyscallNum are
// counted.
const MaxSyscallNum = 500

// SyscallName returns the name of syscall sysno, or a placeholder.
func SyscallName(sysno uintptr) string {
	switch sysno {
	case SYS_WRITE:
		return "write"
	case SYS_EXIT:
		return "exit"
	case SYS_YIELD:
		return "yield"
	case SYS_GET_TIME:
		return "get_time"
	case SYS_SBRK:
		return "sbrk"
	case SYS_MUNMAP:
		return "munmap"
	case SYS_MMAP:
		return "mmap"
	case SYS_TASK_INFO:
		return "task_info"
	default:
		return fmt.Sprintf("sys_%d", sysno)
	}
}
