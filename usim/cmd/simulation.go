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

package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
	"teachos.dev/uspace/pkg/log"
	"teachos.dev/uspace/pkg/sentry/kernel"
	"teachos.dev/uspace/pkg/sentry/pgalloc"
	"teachos.dev/uspace/pkg/sentry/syscalls/linux"
	"teachos.dev/uspace/usim/config"
	"teachos.dev/uspace/usim/trace"
)

// simulation is a kernel whose tasks replay a trace.
type simulation struct {
	mf *pgalloc.MemoryFile
	k  *kernel.Kernel
}

// taskRun is the replay of one task.
type taskRun struct {
	task    *kernel.Task
	ops     []trace.Op
	results []trace.Result
	err     error
}

func newSimulation(conf *config.Config, console io.Writer) (*simulation, error) {
	mf, err := pgalloc.NewMemoryFile(conf.MemoryFileOpts())
	if err != nil {
		return nil, err
	}
	k, err := kernel.New(kernel.InitKernelArgs{
		MemoryFile:   mf,
		MMOpts:       conf.MMOpts(),
		SyscallTable: linux.RISCV64,
		Console:      console,
	})
	if err != nil {
		mf.Destroy()
		return nil, err
	}
	log.Infof("Simulating %v", mf)
	return &simulation{mf: mf, k: k}, nil
}

// destroy exits every task and releases the frame pool.
func (s *simulation) destroy() {
	s.k.Release()
	if used := s.mf.UsedFrames(); used != 0 {
		log.Warningf("%d frames still in use after every task exited", used)
	}
	if err := s.mf.Destroy(); err != nil {
		log.Warningf("Destroying %v: %v", s.mf, err)
	}
}

// replay creates the tasks of tr, copies times each if copies is positive,
// and replays them concurrently. Tasks are returned in creation order. The
// error is the first replay error, if any. A failing task does not stop the
// others; cancelling ctx stops tasks that have not started.
func (s *simulation) replay(ctx context.Context, tr *trace.Trace, copies int) ([]*taskRun, error) {
	var runs []*taskRun
	for _, script := range tr.Tasks {
		n := script.Copies
		if copies > 0 {
			n = copies
		}
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			name := script.Name
			if n > 1 {
				name = fmt.Sprintf("%s.%d", script.Name, i)
			}
			t, err := s.k.NewTask(name)
			if err != nil {
				return nil, err
			}
			runs = append(runs, &taskRun{task: t, ops: script.Ops})
		}
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, run := range runs {
		run := run // go.mod targets go1.21: keep per-iteration capture
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				run.err = err
				return err
			}
			run.results, run.err = trace.Replay(run.task, run.ops)
			return run.err
		})
	}
	return runs, g.Wait()
}

// printResults writes each task's results and exit state to w.
func printResults(w io.Writer, runs []*taskRun) {
	for _, run := range runs {
		fmt.Fprintf(w, "task %v:\n", run.task)
		for _, r := range run.results {
			fmt.Fprintf(w, "  %v\n", r)
		}
		if code, ok := run.task.ExitCode(); ok {
			fmt.Fprintf(w, "  exited with code %d\n", code)
		} else {
			fmt.Fprintf(w, "  %v\n", run.task.Status())
		}
	}
}

// printMaps writes each task's address space to w.
func printMaps(w io.Writer, runs []*taskRun) error {
	for _, run := range runs {
		fmt.Fprintf(w, "task %v maps:\n", run.task)
		if err := run.task.MemoryManager().WriteMaps(w); err != nil {
			return err
		}
	}
	return nil
}
