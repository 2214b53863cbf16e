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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"teachos.dev/uspace/pkg/abi/linux"
	"teachos.dev/uspace/pkg/log"
	"teachos.dev/uspace/pkg/sentry/kernel"
	"teachos.dev/uspace/pkg/sentry/ktime"
	"teachos.dev/uspace/pkg/sentry/mm"
	"teachos.dev/uspace/pkg/sentry/pgalloc"
	linuxsys "teachos.dev/uspace/pkg/sentry/syscalls/linux"
)

const scenario = `
tasks:
- name: init
  ops:
  - {op: mmap, addr: 0x10000, len: 8192, prot: 3, want: 0}
  - {op: mmap, addr: 0x11000, len: 4096, prot: 1, want: -1}
  - {op: store, addr: 0x10ffd, data: "abcdef", want: 6}
  - {op: load, addr: 0x10ffd, len: 6, expect: "abcdef"}
  - {op: sbrk, delta: 4096, want: 0x40000000}
  - {op: munmap, addr: 0x10000, len: 4096, want: -1}
  - {op: munmap, addr: 0x10000, len: 8192, want: 0}
  - {op: load, addr: 0x10ffd, len: 1, want: -1}
  - {op: syscall, sysno: 499, want: -1}
  - {op: yield, want: 0}
  - {op: exit, code: 3}
  - {op: sbrk, delta: 0}
`

func newTestKernel(t *testing.T, frames uint64) *kernel.Kernel {
	t.Helper()
	mf, err := pgalloc.NewMemoryFile(pgalloc.MemoryFileOpts{Frames: frames, Logger: log.TestLog(t)})
	if err != nil {
		t.Fatalf("NewMemoryFile failed: %v", err)
	}
	t.Cleanup(func() { mf.Destroy() })
	k, err := kernel.New(kernel.InitKernelArgs{
		MemoryFile:   mf,
		Clock:        &ktime.SyntheticClock{},
		MMOpts:       mm.Opts{HeapBase: 0x40000000},
		SyscallTable: linuxsys.RISCV64,
		Logger:       log.TestLog(t),
	})
	if err != nil {
		t.Fatalf("kernel.New failed: %v", err)
	}
	t.Cleanup(k.Release)
	return k
}

func TestParse(t *testing.T) {
	tr, err := Parse(strings.NewReader(scenario))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(tr.Tasks) != 1 || tr.Tasks[0].Name != "init" {
		t.Fatalf("Parse returned tasks %+v, want one task named init", tr.Tasks)
	}
	want := -1
	got := tr.Tasks[0].Ops[1]
	if got.Op != OpMmap || got.Addr != 0x11000 || got.Want == nil || *got.Want != int64(want) {
		t.Errorf("second op = %+v, want mmap at 0x11000 expecting %d", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"no tasks":      "tasks: []\n",
		"no name":       "tasks:\n- ops: [{op: yield}]\n",
		"unknown op":    "tasks:\n- name: a\n  ops: [{op: fork}]\n",
		"unknown field": "tasks:\n- name: a\n  ops: [{op: yield, color: red}]\n",
		"short expect":  "tasks:\n- name: a\n  ops: [{op: load, addr: 0, len: 4, expect: ab}]\n",
		"write no fd":   "tasks:\n- name: a\n  ops: [{op: write, addr: 0, len: 4}]\n",
		"not yaml":      "tasks: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(doc)); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", doc)
			}
		})
	}
}

func TestReplayScenario(t *testing.T) {
	tr, err := Parse(strings.NewReader(scenario))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	k := newTestKernel(t, 8)
	task, err := k.NewTask("init")
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	results, err := Replay(task, tr.Tasks[0].Ops)
	if err != nil {
		for _, r := range results {
			t.Logf("%v", r)
		}
		t.Fatalf("Replay failed: %v", err)
	}

	// The op after exit is not replayed.
	if got, want := len(results), len(tr.Tasks[0].Ops)-1; got != want {
		t.Errorf("Replay returned %d results, want %d", got, want)
	}
	if diff := cmp.Diff([]byte("abcdef"), results[3].Data); diff != "" {
		t.Errorf("load data mismatch (-want +got):\n%s", diff)
	}
	if code, ok := task.ExitCode(); !ok || code != 3 {
		t.Errorf("ExitCode() = (%d, %t), want (3, true)", code, ok)
	}
	if got := task.SyscallCount(499); got != 1 {
		t.Errorf("SyscallCount(499) = %d, want 1", got)
	}
	if got := k.MemoryFile().FreeFrames(); got != 8 {
		t.Errorf("FreeFrames() = %d, want 8", got)
	}
}

func TestReplayReportsMismatch(t *testing.T) {
	tr, err := Parse(strings.NewReader(`
tasks:
- name: init
  ops:
  - {op: mmap, addr: 0x10000, len: 4096, prot: 1, want: -1}
  - {op: load, addr: 0x10000, len: 2, expect: "hi"}
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	k := newTestKernel(t, 2)
	task, err := k.NewTask("init")
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	results, err := Replay(task, tr.Tasks[0].Ops)
	if err == nil {
		t.Fatalf("Replay succeeded, want mismatch error")
	}
	for i, r := range results {
		if r.Mismatch == "" {
			t.Errorf("result %d (%v) has no mismatch", i, r)
		}
	}
	if got := task.Status(); got != linux.TaskRunning {
		t.Errorf("Status() = %v, want %v", got, linux.TaskRunning)
	}
}

func TestResultString(t *testing.T) {
	want := int64(0x40000000)
	r := Result{Op: Op{Op: OpSbrk, Delta: 16, Want: &want}, Ret: 0x40000000}
	if got := r.String(); got != "sbrk(16) = 0x40000000" {
		t.Errorf("String() = %q", got)
	}
	r = Result{Op: Op{Op: OpLoad, Addr: 0x1000, Len: 2}, Ret: 2, Data: []byte("hi")}
	if got := r.String(); got != `load(0x1000, 2) = 2 "hi"` {
		t.Errorf("String() = %q", got)
	}
}
