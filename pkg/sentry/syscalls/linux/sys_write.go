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

	"teachos.dev/uspace/pkg/sentry/arch"
	"teachos.dev/uspace/pkg/sentry/kernel"
	"teachos.dev/uspace/pkg/usermem"
)

const (
	// stdoutFD is the only descriptor write accepts.
	stdoutFD = 1

	// maxWriteLen bounds a single write.
	maxWriteLen = 1 << 20
)

// Write implements write(fd, buf, len) for stdout, which is the kernel
// console. It returns the number of bytes written.
func Write(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()

	if fd != stdoutFD {
		return 0, fmt.Errorf("fd %d: %w", fd, errBadFD)
	}
	if size > maxWriteLen {
		return 0, fmt.Errorf("write of %d bytes: %w", size, errTooLong)
	}
	buf := make([]byte, size)
	if _, err := t.MemoryManager().CopyIn(t, addr, buf, usermem.IOOpts{}); err != nil {
		return 0, err
	}
	n, err := t.Kernel().WriteConsole(buf)
	return uintptr(n), err
}
