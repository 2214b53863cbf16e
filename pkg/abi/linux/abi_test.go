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
	"testing"

	"github.com/google/go-cmp/cmp"
	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/marshal"
)

func TestTimeValLayout(t *testing.T) {
	tv := MicrosToTimeVal(3_000_042)
	if tv != (TimeVal{Sec: 3, Usec: 42}) {
		t.Fatalf("MicrosToTimeVal(3000042) = %+v, want {3 42}", tv)
	}
	want := []byte{
		3, 0, 0, 0, 0, 0, 0, 0,
		42, 0, 0, 0, 0, 0, 0, 0,
	}
	if diff := cmp.Diff(want, marshal.Marshal(&tv)); diff != "" {
		t.Errorf("TimeVal bytes mismatch (-want +got):\n%s", diff)
	}
	if got := tv.Micros(); got != 3_000_042 {
		t.Errorf("Micros() = %d, want 3000042", got)
	}
}

func TestTaskInfoLayout(t *testing.T) {
	var ti TaskInfo
	ti.Status = TaskRunning
	ti.SyscallTimes[SYS_GET_TIME] = 2
	ti.SyscallTimes[MaxSyscallNum-1] = 7
	ti.Time = 0x0102030405060708

	b := marshal.Marshal(&ti)
	if len(b) != SizeOfTaskInfo {
		t.Fatalf("len = %d, want %d", len(b), SizeOfTaskInfo)
	}
	if got := b[0]; got != byte(TaskRunning) {
		t.Errorf("status byte = %d, want %d", got, TaskRunning)
	}
	if got := b[4+4*SYS_GET_TIME]; got != 2 {
		t.Errorf("get_time counter byte = %d, want 2", got)
	}
	if got := b[4+4*(MaxSyscallNum-1)]; got != 7 {
		t.Errorf("last counter byte = %d, want 7", got)
	}
	if got := b[2008]; got != 0x08 {
		t.Errorf("time low byte = %#x, want 0x08", got)
	}

	var back TaskInfo
	if rest := back.UnmarshalBytes(b); len(rest) != 0 {
		t.Errorf("UnmarshalBytes left %d bytes", len(rest))
	}
	if diff := cmp.Diff(ti, back); diff != "" {
		t.Errorf("TaskInfo round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSyscallName(t *testing.T) {
	for sysno, want := range map[uintptr]string{
		SYS_MMAP:      "mmap",
		SYS_TASK_INFO: "task_info",
		7:             "sys_7",
	} {
		if got := SyscallName(sysno); got != want {
			t.Errorf("SyscallName(%d) = %q, want %q", sysno, got, want)
		}
	}
}

func TestAccessTypeFromProt(t *testing.T) {
	for _, test := range []struct {
		prot   uint64
		want   hostarch.AccessType
		wantOK bool
	}{
		{PROT_NONE, hostarch.NoAccess, false},
		{PROT_READ, hostarch.Read, true},
		{PROT_READ | PROT_WRITE, hostarch.ReadWrite, true},
		{PROT_EXEC, hostarch.Execute, true},
		{PROT_MASK, hostarch.AnyAccess, true},
		{8, hostarch.NoAccess, false},
		{PROT_READ | 8, hostarch.NoAccess, false},
	} {
		got, ok := AccessTypeFromProt(test.prot)
		if got != test.want || ok != test.wantOK {
			t.Errorf("AccessTypeFromProt(%#x) = (%v, %t), want (%v, %t)", test.prot, got, ok, test.want, test.wantOK)
		}
	}
}
