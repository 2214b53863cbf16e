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
	"fmt"

	"teachos.dev/uspace/pkg/abi/linux"
	"teachos.dev/uspace/pkg/sentry/arch"
	"teachos.dev/uspace/pkg/sentry/kernel"
)

// Mmap implements mmap(start, len, prot). It maps zero-filled anonymous
// memory at exactly start and returns 0.
func Mmap(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, error) {
	addr := args[0].Pointer()
	length := args[1].Uint64()
	prot := args[2].Uint64()

	at, ok := linux.AccessTypeFromProt(prot)
	if !ok {
		return 0, fmt.Errorf("prot %#x: %w", prot, errInvalidProt)
	}
	if _, err := t.MemoryManager().MMap(t, addr, length, at); err != nil {
		return 0, err
	}
	return 0, nil
}

// Munmap implements munmap(start, len). The range must be exactly the union
// of whole mappings.
func Munmap(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, error) {
	return 0, t.MemoryManager().MUnmap(t, args[0].Pointer(), args[1].Uint64())
}

// Sbrk implements sbrk(delta). It returns the previous program break.
func Sbrk(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, error) {
	old, err := t.MemoryManager().Sbrk(t, args[0].Int64())
	if err != nil {
		return 0, err
	}
	return uintptr(old), nil
}
