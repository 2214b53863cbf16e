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
	"io"
	"os"

	"github.com/google/subcommands"
	"teachos.dev/uspace/usim/config"
	"teachos.dev/uspace/usim/trace"
)

// Maps implements subcommands.Command for the "maps" command.
type Maps struct{}

// Name implements subcommands.Command.Name.
func (*Maps) Name() string {
	return "maps"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Maps) Synopsis() string {
	return "replay a syscall trace and print only the resulting address spaces"
}

// Usage implements subcommands.Command.Usage.
func (*Maps) Usage() string {
	return `maps [flags] <trace.yaml> - print address spaces after a replay.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Maps) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Maps) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	tr, err := trace.Load(f.Arg(0))
	if err != nil {
		Fatalf("loading trace: %v", err)
	}
	// Output of write goes nowhere; only the maps are printed.
	sim, err := newSimulation(conf, io.Discard)
	if err != nil {
		Fatalf("creating simulation: %v", err)
	}
	defer sim.destroy()

	runs, err := sim.replay(ctx, tr, 0)
	if runs == nil {
		Fatalf("replaying trace: %v", err)
	}
	if err := printMaps(os.Stdout, runs); err != nil {
		Fatalf("printing maps: %v", err)
	}
	return subcommands.ExitSuccess
}
