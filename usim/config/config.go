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

// Package config provides basic infrastructure to set configuration settings
// for usim. usim uses command line flags to set configuration parameters,
// optionally seeded from a TOML file.
package config

import (
	"fmt"

	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/log"
	"teachos.dev/uspace/pkg/sentry/mm"
	"teachos.dev/uspace/pkg/sentry/pgalloc"
)

// Config holds configuration that is not part of a trace. Each field with a
// 'flag' tag is populated from the flag of that name.
type Config struct {
	// Frames is the number of physical frames shared by all tasks.
	Frames uint64 `flag:"frames"`

	// BasePhysAddr is the physical address of the first frame.
	BasePhysAddr uint64 `flag:"base-phys-addr"`

	// HeapBase is the initial program break of every task.
	HeapBase uint64 `flag:"heap-base"`

	// MaxAddr is one past the highest user address.
	MaxAddr uint64 `flag:"max-addr"`

	// CopyPolicy controls user memory copies that hit an inaccessible page.
	CopyPolicy CopyPolicy `flag:"copy-policy"`

	// LogFilename is the filename to log to, if not empty.
	LogFilename string `flag:"log"`

	// LogFormat is the log format.
	LogFormat string `flag:"log-format"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug"`

	// ConfigFile is the path of a TOML file supplying flag defaults.
	ConfigFile string `flag:"config"`
}

func (c *Config) validate() error {
	if c.Frames == 0 {
		return fmt.Errorf("--frames must be positive")
	}
	if !hostarch.Addr(c.BasePhysAddr).IsPageAligned() {
		return fmt.Errorf("--base-phys-addr %#x is not page-aligned", c.BasePhysAddr)
	}
	if !hostarch.Addr(c.HeapBase).IsPageAligned() {
		return fmt.Errorf("--heap-base %#x is not page-aligned", c.HeapBase)
	}
	if !hostarch.Addr(c.MaxAddr).IsPageAligned() || c.MaxAddr == 0 {
		return fmt.Errorf("--max-addr %#x must be a positive multiple of the page size", c.MaxAddr)
	}
	if c.HeapBase >= c.MaxAddr {
		return fmt.Errorf("--heap-base %#x must be below --max-addr %#x", c.HeapBase, c.MaxAddr)
	}
	switch c.LogFormat {
	case "text", "json", "logrus":
	default:
		return fmt.Errorf("invalid --log-format %q, must be 'text', 'json' or 'logrus'", c.LogFormat)
	}
	return nil
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config:")
	log.Infof("\t\tFrames: %d (%d KiB)", c.Frames, c.Frames*hostarch.PageSize/1024)
	log.Infof("\t\tBasePhysAddr: %#x", c.BasePhysAddr)
	log.Infof("\t\tHeapBase: %#x", c.HeapBase)
	log.Infof("\t\tMaxAddr: %#x", c.MaxAddr)
	log.Infof("\t\tCopyPolicy: %v", c.CopyPolicy)
	log.Infof("\t\tDebug: %t", c.Debug)
}

// MemoryFileOpts returns the frame allocator options described by c.
func (c *Config) MemoryFileOpts() pgalloc.MemoryFileOpts {
	return pgalloc.MemoryFileOpts{
		Frames:       c.Frames,
		BasePhysAddr: c.BasePhysAddr,
	}
}

// MMOpts returns the address space options described by c.
func (c *Config) MMOpts() mm.Opts {
	return mm.Opts{
		Layout:     mm.Layout{MinAddr: 0, MaxAddr: hostarch.Addr(c.MaxAddr)},
		HeapBase:   hostarch.Addr(c.HeapBase),
		CopyPolicy: mm.CopyPolicy(c.CopyPolicy),
	}
}

// CopyPolicy is the flag form of mm.CopyPolicy.
type CopyPolicy mm.CopyPolicy

func copyPolicyPtr(p mm.CopyPolicy) *CopyPolicy {
	c := CopyPolicy(p)
	return &c
}

// Set implements flag.Value.
func (c *CopyPolicy) Set(v string) error {
	p, err := mm.ParseCopyPolicy(v)
	if err != nil {
		return err
	}
	*c = CopyPolicy(p)
	return nil
}

// Get implements flag.Getter.
func (c *CopyPolicy) Get() any {
	return *c
}

// String implements flag.Value.
func (c CopyPolicy) String() string {
	return mm.CopyPolicy(c).String()
}
