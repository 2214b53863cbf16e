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
	"bytes"
	"testing"
	"time"

	"teachos.dev/uspace/pkg/abi/linux"
	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/log"
	"teachos.dev/uspace/pkg/sentry/arch"
	"teachos.dev/uspace/pkg/sentry/kernel"
	"teachos.dev/uspace/pkg/sentry/ktime"
	"teachos.dev/uspace/pkg/sentry/mm"
	"teachos.dev/uspace/pkg/sentry/pgalloc"
	"teachos.dev/uspace/pkg/usermem"
)

const testHeapBase = 0x40000000

type testEnv struct {
	k       *kernel.Kernel
	t       *kernel.Task
	clock   *ktime.SyntheticClock
	console *bytes.Buffer
}

func newTestEnv(t *testing.T, frames uint64) *testEnv {
	t.Helper()
	mf, err := pgalloc.NewMemoryFile(pgalloc.MemoryFileOpts{Frames: frames, Logger: log.TestLog(t)})
	if err != nil {
		t.Fatalf("NewMemoryFile failed: %v", err)
	}
	t.Cleanup(func() { mf.Destroy() })
	env := &testEnv{clock: &ktime.SyntheticClock{}, console: &bytes.Buffer{}}
	env.k, err = kernel.New(kernel.InitKernelArgs{
		MemoryFile:   mf,
		Clock:        env.clock,
		MMOpts:       mm.Opts{HeapBase: testHeapBase},
		SyscallTable: RISCV64,
		Console:      env.console,
		Logger:       log.TestLog(t),
	})
	if err != nil {
		t.Fatalf("kernel.New failed: %v", err)
	}
	t.Cleanup(env.k.Release)
	if env.t, err = env.k.NewTask("test"); err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if err := env.t.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return env
}

func (e *testEnv) call(sysno uintptr, vals ...uintptr) int64 {
	return e.t.Syscall(sysno, arch.Args(vals...))
}

func TestTableNames(t *testing.T) {
	for num, sc := range RISCV64.Table {
		if want := linux.SyscallName(num); sc.Name != want {
			t.Errorf("syscall %d named %q, want %q", num, sc.Name, want)
		}
	}
}

func TestMmap(t *testing.T) {
	e := newTestEnv(t, 8)
	for _, test := range []struct {
		name               string
		addr, length, prot uintptr
		want               int64
	}{
		{"read-write", 0x10000, 2 * hostarch.PageSize, linux.PROT_READ | linux.PROT_WRITE, 0},
		{"overlap", 0x11000, hostarch.PageSize, linux.PROT_READ, -1},
		{"no access", 0x20000, hostarch.PageSize, linux.PROT_NONE, -1},
		{"unknown bits", 0x20000, hostarch.PageSize, 0x8 | linux.PROT_READ, -1},
		{"unaligned", 0x20001, hostarch.PageSize, linux.PROT_READ, -1},
		{"zero length", 0x20000, 0, linux.PROT_READ, -1},
		{"partial page", 0x20000, 10, linux.PROT_EXEC, 0},
	} {
		if got := e.call(linux.SYS_MMAP, test.addr, test.length, test.prot); got != test.want {
			t.Errorf("%s: mmap(%#x, %#x, %#x) = %d, want %d", test.name, test.addr, test.length, test.prot, got, test.want)
		}
	}
	if got := e.t.MemoryManager().MappedPages(); got != 3 {
		t.Errorf("MappedPages() = %d, want 3", got)
	}
}

func TestMunmap(t *testing.T) {
	e := newTestEnv(t, 8)
	e.call(linux.SYS_MMAP, 0x10000, 2*hostarch.PageSize, linux.PROT_READ)
	if got := e.call(linux.SYS_MUNMAP, 0x10000, hostarch.PageSize); got != -1 {
		t.Errorf("munmap of half an area = %d, want -1", got)
	}
	if got := e.call(linux.SYS_MUNMAP, 0x10000, 2*hostarch.PageSize); got != 0 {
		t.Errorf("munmap of the whole area = %d, want 0", got)
	}
	if got := e.call(linux.SYS_MUNMAP, 0x10000, 2*hostarch.PageSize); got != -1 {
		t.Errorf("second munmap = %d, want -1", got)
	}
	if got := e.k.MemoryFile().FreeFrames(); got != 8 {
		t.Errorf("FreeFrames() = %d, want 8", got)
	}
}

func TestSbrk(t *testing.T) {
	e := newTestEnv(t, 8)
	if got := e.call(linux.SYS_SBRK, 0); got != testHeapBase {
		t.Errorf("sbrk(0) = %#x, want %#x", got, testHeapBase)
	}
	if got := e.call(linux.SYS_SBRK, hostarch.PageSize+1); got != testHeapBase {
		t.Errorf("sbrk(4097) = %#x, want %#x", got, testHeapBase)
	}
	neg := -3 * hostarch.PageSize
	if got := e.call(linux.SYS_SBRK, uintptr(neg)); got != -1 {
		t.Errorf("sbrk(%d) = %d, want -1", neg, got)
	}
	if got, want := e.call(linux.SYS_SBRK, 0), int64(testHeapBase+hostarch.PageSize+1); got != want {
		t.Errorf("break after failed shrink = %#x, want %#x", got, want)
	}
	if got := e.t.MemoryManager().MappedPages(); got != 2 {
		t.Errorf("MappedPages() = %d, want 2", got)
	}
}

func TestGetTimeAcrossPages(t *testing.T) {
	e := newTestEnv(t, 4)
	e.clock.Add(3*time.Second + 42*time.Microsecond)
	e.call(linux.SYS_MMAP, 0x10000, 2*hostarch.PageSize, linux.PROT_READ|linux.PROT_WRITE)

	addr := uintptr(0x10000 + hostarch.PageSize - 8)
	if got := e.call(linux.SYS_GET_TIME, addr, 0); got != 0 {
		t.Fatalf("get_time = %d, want 0", got)
	}
	var tv linux.TimeVal
	if _, err := usermem.CopyObjectIn(e.t, e.t.MemoryManager(), hostarch.Addr(addr), &tv, usermem.IOOpts{}); err != nil {
		t.Fatalf("CopyObjectIn failed: %v", err)
	}
	if want := (linux.TimeVal{Sec: 3, Usec: 42}); tv != want {
		t.Errorf("get_time wrote %+v, want %+v", tv, want)
	}

	if got := e.call(linux.SYS_GET_TIME, 0x10000+2*hostarch.PageSize-8, 0); got != -1 {
		t.Errorf("get_time into an unmapped page = %d, want -1", got)
	}
}

func TestGetTimeReadOnly(t *testing.T) {
	e := newTestEnv(t, 4)
	e.call(linux.SYS_MMAP, 0x10000, hostarch.PageSize, linux.PROT_READ)
	if got := e.call(linux.SYS_GET_TIME, 0x10000, 0); got != -1 {
		t.Errorf("get_time into a read-only page = %d, want -1", got)
	}
}

func TestTaskInfo(t *testing.T) {
	e := newTestEnv(t, 4)
	e.clock.Add(250 * time.Millisecond)
	e.call(linux.SYS_GET_TIME, 0, 0)
	e.call(linux.SYS_GET_TIME, 0, 0)
	e.call(linux.SYS_MMAP, 0x10000, hostarch.PageSize, linux.PROT_READ|linux.PROT_WRITE)

	addr := uintptr(0x10000)
	if got := e.call(linux.SYS_TASK_INFO, addr); got != 0 {
		t.Fatalf("task_info = %d, want 0", got)
	}
	var info linux.TaskInfo
	if _, err := usermem.CopyObjectIn(e.t, e.t.MemoryManager(), hostarch.Addr(addr), &info, usermem.IOOpts{}); err != nil {
		t.Fatalf("CopyObjectIn failed: %v", err)
	}
	if info.Status != linux.TaskRunning {
		t.Errorf("Status = %v, want %v", info.Status, linux.TaskRunning)
	}
	if info.Time != 250 {
		t.Errorf("Time = %d, want 250", info.Time)
	}
	for _, test := range []struct {
		sysno uintptr
		want  uint32
	}{
		{linux.SYS_GET_TIME, 2},
		{linux.SYS_MMAP, 1},
		{linux.SYS_TASK_INFO, 1},
		{linux.SYS_WRITE, 0},
	} {
		if got := info.SyscallTimes[test.sysno]; got != test.want {
			t.Errorf("SyscallTimes[%s] = %d, want %d", linux.SyscallName(test.sysno), got, test.want)
		}
	}
}

func TestTaskInfoStraddlesPages(t *testing.T) {
	e := newTestEnv(t, 4)
	e.call(linux.SYS_MMAP, 0x10000, 2*hostarch.PageSize, linux.PROT_READ|linux.PROT_WRITE)
	addr := uintptr(0x10000 + hostarch.PageSize - 1000)
	if got := e.call(linux.SYS_TASK_INFO, addr); got != 0 {
		t.Fatalf("task_info = %d, want 0", got)
	}
	var info linux.TaskInfo
	usermem.CopyObjectIn(e.t, e.t.MemoryManager(), hostarch.Addr(addr), &info, usermem.IOOpts{})
	if got := info.SyscallTimes[linux.SYS_MMAP]; got != 1 {
		t.Errorf("SyscallTimes[mmap] = %d, want 1", got)
	}
}

func TestWrite(t *testing.T) {
	e := newTestEnv(t, 4)
	e.call(linux.SYS_MMAP, 0x10000, 2*hostarch.PageSize, linux.PROT_READ|linux.PROT_WRITE)
	msg := []byte("hello, world\n")
	addr := hostarch.Addr(0x10000 + hostarch.PageSize - 5)
	if _, err := e.t.MemoryManager().CopyOut(e.t, addr, msg, usermem.IOOpts{}); err != nil {
		t.Fatalf("CopyOut failed: %v", err)
	}

	if got := e.call(linux.SYS_WRITE, 1, uintptr(addr), uintptr(len(msg))); got != int64(len(msg)) {
		t.Errorf("write = %d, want %d", got, len(msg))
	}
	if got := e.console.String(); got != string(msg) {
		t.Errorf("console = %q, want %q", got, msg)
	}
	if got := e.call(linux.SYS_WRITE, 3, uintptr(addr), 1); got != -1 {
		t.Errorf("write to fd 3 = %d, want -1", got)
	}
	if got := e.call(linux.SYS_WRITE, 1, 0x30000, 1); got != -1 {
		t.Errorf("write from unmapped memory = %d, want -1", got)
	}
}

func TestYield(t *testing.T) {
	e := newTestEnv(t, 1)
	if got := e.call(linux.SYS_YIELD); got != 0 {
		t.Errorf("yield = %d, want 0", got)
	}
	if got := e.t.Status(); got != linux.TaskReady {
		t.Errorf("status after yield = %v, want %v", got, linux.TaskReady)
	}
}

func TestExit(t *testing.T) {
	e := newTestEnv(t, 4)
	e.call(linux.SYS_MMAP, 0x10000, 2*hostarch.PageSize, linux.PROT_READ)
	e.call(linux.SYS_SBRK, 1)
	if got := e.call(linux.SYS_EXIT, 7); got != 0 {
		t.Errorf("exit = %d, want 0", got)
	}
	if code, ok := e.t.ExitCode(); !ok || code != 7 {
		t.Errorf("ExitCode() = (%d, %t), want (7, true)", code, ok)
	}
	if got := e.k.MemoryFile().FreeFrames(); got != 4 {
		t.Errorf("FreeFrames() after exit = %d, want 4", got)
	}
	if got := e.call(linux.SYS_GET_TIME, 0, 0); got != -1 {
		t.Errorf("syscall after exit = %d, want -1", got)
	}
}
