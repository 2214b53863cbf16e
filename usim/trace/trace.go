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

// Package trace defines syscall trace scripts and replays them against
// kernel tasks.
//
// A trace is a YAML document listing tasks, each with the operations it
// performs in order:
//
//	tasks:
//	- name: init
//	  ops:
//	  - {op: mmap, addr: 0x10000, len: 8192, prot: 3, want: 0}
//	  - {op: store, addr: 0x10ffc, data: "hello"}
//	  - {op: load, addr: 0x10ffc, len: 5, expect: "hello"}
//	  - {op: sbrk, delta: 4096}
//	  - {op: exit, code: 0}
package trace

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"
)

// Operation names.
const (
	OpMmap     = "mmap"
	OpMunmap   = "munmap"
	OpSbrk     = "sbrk"
	OpGetTime  = "get_time"
	OpTaskInfo = "task_info"
	OpWrite    = "write"
	OpYield    = "yield"
	OpExit     = "exit"
	OpSyscall  = "syscall"

	// OpStore and OpLoad copy bytes to and from user memory directly,
	// standing in for the task's own loads and stores.
	OpStore = "store"
	OpLoad  = "load"
)

// Trace is a parsed trace script.
type Trace struct {
	Tasks []Task `yaml:"tasks"`
}

// Task is the script of one task.
type Task struct {
	// Name names the task.
	Name string `yaml:"name"`

	// Copies is the number of identical tasks to run. Zero means one.
	Copies int `yaml:"copies,omitempty"`

	// Ops are performed in order.
	Ops []Op `yaml:"ops"`
}

// Op is one operation. Which fields apply depends on Op.
type Op struct {
	Op    string   `yaml:"op"`
	Addr  uint64   `yaml:"addr,omitempty"`
	Len   uint64   `yaml:"len,omitempty"`
	Prot  uint64   `yaml:"prot,omitempty"`
	Delta int64    `yaml:"delta,omitempty"`
	Code  int32    `yaml:"code,omitempty"`
	FD    int32    `yaml:"fd,omitempty"`
	Data  string   `yaml:"data,omitempty"`
	Sysno uint64   `yaml:"sysno,omitempty"`
	Args  []uint64 `yaml:"args,omitempty"`

	// Want, if set, is the expected syscall return value.
	Want *int64 `yaml:"want,omitempty"`

	// Expect, if set, is the data a load must read.
	Expect *string `yaml:"expect,omitempty"`
}

// String implements fmt.Stringer.
func (o Op) String() string {
	switch o.Op {
	case OpMmap:
		return fmt.Sprintf("mmap(%#x, %#x, %#x)", o.Addr, o.Len, o.Prot)
	case OpMunmap:
		return fmt.Sprintf("munmap(%#x, %#x)", o.Addr, o.Len)
	case OpSbrk:
		return fmt.Sprintf("sbrk(%d)", o.Delta)
	case OpGetTime:
		return fmt.Sprintf("get_time(%#x)", o.Addr)
	case OpTaskInfo:
		return fmt.Sprintf("task_info(%#x)", o.Addr)
	case OpWrite:
		return fmt.Sprintf("write(%d, %#x, %d)", o.FD, o.Addr, o.Len)
	case OpYield:
		return "yield()"
	case OpExit:
		return fmt.Sprintf("exit(%d)", o.Code)
	case OpSyscall:
		return fmt.Sprintf("syscall(%d, %v)", o.Sysno, o.Args)
	case OpStore:
		return fmt.Sprintf("store(%#x, %q)", o.Addr, o.Data)
	case OpLoad:
		return fmt.Sprintf("load(%#x, %d)", o.Addr, o.Len)
	default:
		return o.Op + "(?)"
	}
}

func (o Op) validate() error {
	switch o.Op {
	case OpMmap, OpMunmap, OpSbrk, OpGetTime, OpTaskInfo, OpYield, OpExit, OpStore:
	case OpWrite:
		if o.FD == 0 {
			return fmt.Errorf("%v: write needs an fd", o)
		}
	case OpLoad:
		if o.Expect != nil && uint64(len(*o.Expect)) != o.Len {
			return fmt.Errorf("%v: expect has %d bytes, len is %d", o, len(*o.Expect), o.Len)
		}
	case OpSyscall:
		if len(o.Args) > 6 {
			return fmt.Errorf("%v: at most 6 arguments", o)
		}
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
	return nil
}

// Parse reads a trace from r. Unknown fields are an error.
func Parse(r io.Reader) (*Trace, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var tr Trace
	if err := yaml.UnmarshalStrict(data, &tr); err != nil {
		return nil, fmt.Errorf("parsing trace: %w", err)
	}
	if len(tr.Tasks) == 0 {
		return nil, fmt.Errorf("trace has no tasks")
	}
	for i, task := range tr.Tasks {
		if task.Name == "" {
			return nil, fmt.Errorf("task %d has no name", i)
		}
		if task.Copies < 0 {
			return nil, fmt.Errorf("task %q: negative copies", task.Name)
		}
		for j, op := range task.Ops {
			if err := op.validate(); err != nil {
				return nil, fmt.Errorf("task %q op %d: %w", task.Name, j, err)
			}
		}
	}
	return &tr, nil
}

// Load reads the trace in the file at path.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tr, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tr, nil
}

// Marshal renders tr as YAML.
func Marshal(tr *Trace) ([]byte, error) {
	return yaml.Marshal(tr)
}
