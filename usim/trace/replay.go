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

package trace

import (
	"fmt"

	"teachos.dev/uspace/pkg/abi/linux"
	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/sentry/arch"
	"teachos.dev/uspace/pkg/sentry/kernel"
	"teachos.dev/uspace/pkg/usermem"
)

// Result is the outcome of one replayed operation.
type Result struct {
	// Op is the operation.
	Op Op

	// Ret is the syscall return value, or for store and load the number of
	// bytes copied, or -1 on failure.
	Ret int64

	// Data is the data read by a load.
	Data []byte

	// Mismatch describes how the result differs from the op's Want or
	// Expect, if it does.
	Mismatch string
}

// String implements fmt.Stringer.
func (r Result) String() string {
	s := fmt.Sprintf("%v = %d", r.Op, r.Ret)
	if r.Op.Op == OpSbrk && r.Ret >= 0 {
		s = fmt.Sprintf("%v = %#x", r.Op, r.Ret)
	}
	if r.Data != nil {
		s += fmt.Sprintf(" %q", r.Data)
	}
	if r.Mismatch != "" {
		s += " MISMATCH: " + r.Mismatch
	}
	return s
}

// Replay performs ops on behalf of t, in order, and returns their results.
// A Ready task is run before each operation. Replay stops after the task
// exits. It returns an error if any result mismatches its expectation.
func Replay(t *kernel.Task, ops []Op) ([]Result, error) {
	var (
		results    []Result
		mismatches int
	)
	for _, op := range ops {
		if t.Status() == linux.TaskExited {
			break
		}
		if t.Status() == linux.TaskReady {
			if err := t.Run(); err != nil {
				return results, err
			}
		}
		r := replayOne(t, op)
		if r.Mismatch != "" {
			mismatches++
			t.Warningf("%v", r)
		}
		results = append(results, r)
	}
	if mismatches > 0 {
		return results, fmt.Errorf("task %v: %d of %d operations mismatched", t, mismatches, len(results))
	}
	return results, nil
}

func replayOne(t *kernel.Task, op Op) Result {
	r := Result{Op: op}
	switch op.Op {
	case OpStore:
		n, err := t.MemoryManager().CopyOut(t, hostarch.Addr(op.Addr), []byte(op.Data), usermem.IOOpts{})
		r.Ret = int64(n)
		if err != nil {
			r.Ret = kernel.SyscallFailed
		}
	case OpLoad:
		buf := make([]byte, op.Len)
		if _, err := t.MemoryManager().CopyIn(t, hostarch.Addr(op.Addr), buf, usermem.IOOpts{}); err != nil {
			r.Ret = kernel.SyscallFailed
		} else {
			r.Ret = int64(len(buf))
			r.Data = buf
		}
		if op.Expect != nil && string(r.Data) != *op.Expect {
			r.Mismatch = fmt.Sprintf("read %q, want %q", r.Data, *op.Expect)
		}
	default:
		sysno, args := op.syscall()
		r.Ret = t.Syscall(sysno, args)
	}
	if op.Want != nil && r.Ret != *op.Want {
		r.Mismatch = fmt.Sprintf("returned %d, want %d", r.Ret, *op.Want)
	}
	return r
}

// syscall returns the syscall performing o.
//
// Preconditions: o is valid and is neither a store nor a load.
func (o Op) syscall() (uintptr, arch.SyscallArguments) {
	switch o.Op {
	case OpMmap:
		return linux.SYS_MMAP, arch.Args(uintptr(o.Addr), uintptr(o.Len), uintptr(o.Prot))
	case OpMunmap:
		return linux.SYS_MUNMAP, arch.Args(uintptr(o.Addr), uintptr(o.Len))
	case OpSbrk:
		return linux.SYS_SBRK, arch.Args(uintptr(o.Delta))
	case OpGetTime:
		return linux.SYS_GET_TIME, arch.Args(uintptr(o.Addr), 0)
	case OpTaskInfo:
		return linux.SYS_TASK_INFO, arch.Args(uintptr(o.Addr))
	case OpWrite:
		return linux.SYS_WRITE, arch.Args(uintptr(o.FD), uintptr(o.Addr), uintptr(o.Len))
	case OpYield:
		return linux.SYS_YIELD, arch.Args()
	case OpExit:
		return linux.SYS_EXIT, arch.Args(uintptr(o.Code))
	case OpSyscall:
		vals := make([]uintptr, len(o.Args))
		for i, a := range o.Args {
			vals[i] = uintptr(a)
		}
		return uintptr(o.Sysno), arch.Args(vals...)
	default:
		panic(fmt.Sprintf("no syscall for op %q", o.Op))
	}
}
