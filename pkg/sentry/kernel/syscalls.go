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

	"teachos.dev/uspace/pkg/sentry/arch"
)

// SyscallFn is a syscall implementation. The returned value is placed in
// the return register when err is nil.
type SyscallFn func(t *Task, sysno uintptr, args arch.SyscallArguments) (uintptr, error)

// Syscall includes the syscall implementation and compatibility information.
type Syscall struct {
	// Name is the syscall name.
	Name string

	// Fn is the implementation of the syscall.
	Fn SyscallFn

	// Args is the number of arguments the syscall takes, for logging.
	Args int
}

// SyscallTable is a lookup table of system calls.
type SyscallTable struct {
	// Table is the collection of functions.
	Table map[uintptr]Syscall

	// lookup is a fixed-size array that holds the syscalls (indexed by
	// their numbers). It is used for fast look ups.
	lookup []*Syscall
}

// MaxSysno returns the largest system call number.
func (s *SyscallTable) MaxSysno() (max uintptr) {
	for num := range s.Table {
		if num > max {
			max = num
		}
	}
	return max
}

// Init initializes the system call table. It is idempotent.
func (s *SyscallTable) Init() {
	if s.lookup != nil {
		return
	}
	max := s.MaxSysno()
	s.lookup = make([]*Syscall, max+1)
	for num, sc := range s.Table {
		if sc.Fn == nil {
			panic(fmt.Sprintf("syscall %d (%s) has no implementation", num, sc.Name))
		}
		sc := sc
		s.lookup[num] = &sc
	}
}

// Lookup returns the syscall with number sysno, or nil.
//
// Preconditions: Init has been called.
func (s *SyscallTable) Lookup(sysno uintptr) *Syscall {
	if sysno < uintptr(len(s.lookup)) {
		return s.lookup[sysno]
	}
	return nil
}
