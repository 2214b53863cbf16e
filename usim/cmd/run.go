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
	"flag"
	"os"

	"github.com/google/subcommands"
	"teachos.dev/uspace/pkg/log"
	"teachos.dev/uspace/usim/config"
	"teachos.dev/uspace/usim/trace"
)

// Run implements subcommands.Command for the "run" command.
type Run struct {
	// copies overrides the number of copies of each trace task.
	copies int

	// maps prints each task's address space after the replay.
	maps bool
}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "replay a syscall trace and print each operation's result"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run [flags] <trace.yaml> - replay a syscall trace.

Tasks replay concurrently and share one pool of frames. Operations of a task
whose result differs from its "want" or "expect" are reported as mismatches
and make the command fail.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Run) SetFlags(f *flag.FlagSet) {
	f.IntVar(&r.copies, "copies", 0, "run this many copies of each task, overriding the trace. 0 keeps the trace's counts.")
	f.BoolVar(&r.maps, "maps", true, "print each task's address space after the replay.")
}

// Execute implements subcommands.Command.Execute.
func (r *Run) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	tr, err := trace.Load(f.Arg(0))
	if err != nil {
		Fatalf("loading trace: %v", err)
	}
	sim, err := newSimulation(conf, os.Stdout)
	if err != nil {
		Fatalf("creating simulation: %v", err)
	}
	defer sim.destroy()

	runs, replayErr := sim.replay(ctx, tr, r.copies)
	if runs == nil {
		Fatalf("replaying trace: %v", replayErr)
	}
	printResults(os.Stdout, runs)
	if r.maps {
		if err := printMaps(os.Stdout, runs); err != nil {
			Fatalf("printing maps: %v", err)
		}
	}
	if replayErr != nil {
		log.Warningf("Replay failed: %v", replayErr)
		writeError(replayErr.Error())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
