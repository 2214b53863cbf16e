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

	"teachos.dev/uspace/pkg/hostarch"
)

// TaskStatus is the scheduling state of a task.
type TaskStatus uint32

// Task states.
const (
	TaskUnInit TaskStatus = iota
	TaskReady
	TaskRunning
	TaskExited
)

// String implements fmt.Stringer.
func (s TaskStatus) String() string {
	switch s {
	case TaskUnInit:
		return "UnInit"
	case TaskReady:
		return "Ready"
	case TaskRunning:
		return "Running"
	case TaskExited:
		return "Exited"
	default:
		return fmt.Sprintf("TaskStatus(%d)", uint32(s))
	}
}

// Layout of TaskInfo in user memory.
const (
	taskInfoStatusOffset       = 0
	taskInfoSyscallTimesOffset = 4
	taskInfoTimeOffset         = 2008

	// SizeOfTaskInfo is the size of a TaskInfo struct in bytes.
	SizeOfTaskInfo = 2016
)

// TaskInfo is the record returned by task_info. Time is the number of
// milliseconds since the task first ran.
//
// In memory, SyscallTimes is followed by 4 bytes of padding so that Time is
// 8-byte aligned.
type TaskInfo struct {
	Status       TaskStatus
	SyscallTimes [MaxSyscallNum]uint32
	Time         uint64
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (*TaskInfo) SizeBytes() int {
	return SizeOfTaskInfo
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (ti *TaskInfo) MarshalBytes(dst []byte) []byte {
	hostarch.ByteOrder.PutUint32(dst[taskInfoStatusOffset:], uint32(ti.Status))
	for i, n := range ti.SyscallTimes {
		hostarch.ByteOrder.PutUint32(dst[taskInfoSyscallTimesOffset+4*i:], n)
	}
	clear(dst[taskInfoSyscallTimesOffset+4*MaxSyscallNum : taskInfoTimeOffset])
	hostarch.ByteOrder.PutUint64(dst[taskInfoTimeOffset:], ti.Time)
	return dst[SizeOfTaskInfo:]
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (ti *TaskInfo) UnmarshalBytes(src []byte) []byte {
	ti.Status = TaskStatus(hostarch.ByteOrder.Uint32(src[taskInfoStatusOffset:]))
	for i := range ti.SyscallTimes {
		ti.SyscallTimes[i] = hostarch.ByteOrder.Uint32(src[taskInfoSyscallTimesOffset+4*i:])
	}
	ti.Time = hostarch.ByteOrder.Uint64(src[taskInfoTimeOffset:])
	return src[SizeOfTaskInfo:]
}
