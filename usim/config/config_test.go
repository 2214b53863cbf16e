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

package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/sentry/mm"
)

func newTestFlags() *flag.FlagSet {
	testFlags := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(testFlags)
	return testFlags
}

func TestDefault(t *testing.T) {
	c, err := NewFromFlags(newTestFlags())
	if err != nil {
		t.Fatal(err)
	}
	// All defaults doesn't require setting flags.
	if flags := c.ToFlags(); len(flags) > 0 {
		t.Errorf("default flags not set correctly for: %s", flags)
	}
	if c.CopyPolicy != CopyPolicy(mm.CopyAtomic) {
		t.Errorf("CopyPolicy=%v, want: %v", c.CopyPolicy, mm.CopyAtomic)
	}
}

func TestFromFlags(t *testing.T) {
	testFlags := newTestFlags()
	if err := testFlags.Parse([]string{"--frames=64", "--heap-base=0x40000000", "--copy-policy=partial", "--debug"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	c, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}
	if want := uint64(64); c.Frames != want {
		t.Errorf("Frames=%v, want: %v", c.Frames, want)
	}
	if want := uint64(0x40000000); c.HeapBase != want {
		t.Errorf("HeapBase=%#x, want: %#x", c.HeapBase, want)
	}
	if want := true; c.Debug != want {
		t.Errorf("Debug=%v, want: %v", c.Debug, want)
	}

	want := mm.Opts{
		Layout:     mm.DefaultLayout,
		HeapBase:   0x40000000,
		CopyPolicy: mm.CopyPartial,
	}
	if diff := cmp.Diff(want, c.MMOpts()); diff != "" {
		t.Errorf("MMOpts() mismatch (-want +got):\n%s", diff)
	}
}

func TestToFlagsFromFlags(t *testing.T) {
	testFlags := newTestFlags()
	testFlags.Set("frames", "64")
	testFlags.Set("debug", "true")
	testFlags.Set("log-format", "text") // Matches default value.
	testFlags.Set("copy-policy", "partial")
	c, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"--frames=64", "--copy-policy=partial", "--debug=true"}
	if diff := cmp.Diff(want, c.ToFlags()); diff != "" {
		t.Errorf("ToFlags() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidationFail(t *testing.T) {
	for name, args := range map[string][]string{
		"no frames":         {"--frames=0"},
		"unaligned heap":    {"--heap-base=0x1001"},
		"unaligned phys":    {"--base-phys-addr=0x80000001"},
		"heap above layout": {"--heap-base=0x2000", "--max-addr=0x1000"},
		"log format":        {"--log-format=xml"},
	} {
		t.Run(name, func(t *testing.T) {
			testFlags := newTestFlags()
			if err := testFlags.Parse(args); err != nil {
				t.Fatalf("Parse(%v) failed: %v", args, err)
			}
			if _, err := NewFromFlags(testFlags); err == nil {
				t.Errorf("NewFromFlags(%v) succeeded, want error", args)
			}
		})
	}
}

func TestInvalidCopyPolicy(t *testing.T) {
	testFlags := newTestFlags()
	testFlags.SetOutput(&strings.Builder{})
	if err := testFlags.Parse([]string{"--copy-policy=lazy"}); err == nil {
		t.Errorf("Parse accepted --copy-policy=lazy")
	}
}

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usim.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
frames = 256
heap-base = 0x40000000
copy-policy = "partial"
debug = true
`)
	testFlags := newTestFlags()
	if err := testFlags.Parse([]string{"--frames=32"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := LoadFile(path, testFlags); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	c, err := NewFromFlags(testFlags)
	if err != nil {
		t.Fatal(err)
	}
	if want := uint64(32); c.Frames != want {
		t.Errorf("Frames=%v, want: %v (command line wins)", c.Frames, want)
	}
	if want := uint64(0x40000000); c.HeapBase != want {
		t.Errorf("HeapBase=%#x, want: %#x", c.HeapBase, want)
	}
	if want := CopyPolicy(mm.CopyPartial); c.CopyPolicy != want {
		t.Errorf("CopyPolicy=%v, want: %v", c.CopyPolicy, want)
	}
	if !c.Debug {
		t.Errorf("Debug=false, want: true")
	}
	if got := c.MMOpts().HeapBase; got != hostarch.Addr(0x40000000) {
		t.Errorf("MMOpts().HeapBase=%v, want: 0x40000000", got)
	}
}

func TestLoadFileErrors(t *testing.T) {
	for name, contents := range map[string]string{
		"unknown key":  "color = \"blue\"\n",
		"bad value":    "copy-policy = \"lazy\"\n",
		"nested":       "config = \"other.toml\"\n",
		"invalid toml": "frames = \n",
	} {
		t.Run(name, func(t *testing.T) {
			if err := LoadFile(writeFile(t, contents), newTestFlags()); err == nil {
				t.Errorf("LoadFile(%q) succeeded, want error", contents)
			}
		})
	}
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"), newTestFlags()); err == nil {
		t.Errorf("LoadFile of a missing file succeeded")
	}
}
