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

package pagetables

import (
	"fmt"

	"teachos.dev/uspace/pkg/hostarch"
)

// Bits in page table entries, in the SV39 arrangement.
const (
	valid      = 1 << 0
	readable   = 1 << 1
	writable   = 1 << 2
	executable = 1 << 3
	user       = 1 << 4
	global     = 1 << 5
	accessed   = 1 << 6
	dirty      = 1 << 7

	// ppnShift is the position of the PPN within an entry.
	ppnShift = 10
)

// MapOpts are page table options passed to Map.
type MapOpts struct {
	// AccessType defines permissions.
	AccessType hostarch.AccessType

	// Global indicates the page is globally accessible.
	Global bool

	// User indicates the page is a user page.
	User bool
}

// PTE is a page table entry.
//
// A valid entry with none of the R/W/X bits set points to the next level
// table; otherwise it is a leaf.
type PTE uint64

// PTEs is a collection of entries.
type PTEs [hostarch.PTEsPerTable]PTE

// Clear clears this PTE.
func (p *PTE) Clear() {
	*p = 0
}

// Valid returns true iff this entry is valid.
func (p PTE) Valid() bool {
	return p&valid != 0
}

// IsLeaf returns true iff this entry maps a page.
func (p PTE) IsLeaf() bool {
	return p.Valid() && p&(readable|writable|executable) != 0
}

// PPN returns the physical page number stored in this entry.
func (p PTE) PPN() hostarch.PPN {
	return hostarch.PPN(p >> ppnShift)
}

// Opts returns the PTE options.
//
// These are all options except Valid.
func (p PTE) Opts() MapOpts {
	return MapOpts{
		AccessType: hostarch.AccessType{
			Read:    p&readable != 0,
			Write:   p&writable != 0,
			Execute: p&executable != 0,
		},
		Global: p&global != 0,
		User:   p&user != 0,
	}
}

// Set sets this PTE value.
//
// Precondition: opts.AccessType.Any() is true.
func (p *PTE) Set(ppn hostarch.PPN, opts MapOpts) {
	if !opts.AccessType.Any() {
		p.Clear()
		return
	}
	v := PTE(ppn)<<ppnShift | valid | accessed | dirty
	if opts.AccessType.Read {
		v |= readable
	}
	if opts.AccessType.Write {
		v |= writable
	}
	if opts.AccessType.Execute {
		v |= executable
	}
	if opts.User {
		v |= user
	}
	if opts.Global {
		v |= global
	}
	*p = v
}

// setPageTable makes this PTE point to the next level table numbered node.
func (p *PTE) setPageTable(node uint64) {
	*p = PTE(node)<<ppnShift | valid
}

// table returns the node number of the next level table.
func (p PTE) table() uint64 {
	return uint64(p >> ppnShift)
}

// String implements fmt.Stringer.String.
func (p PTE) String() string {
	if !p.Valid() {
		return "invalid"
	}
	if !p.IsLeaf() {
		return fmt.Sprintf("table:%#x", p.table())
	}
	u := '-'
	if p&user != 0 {
		u = 'u'
	}
	return fmt.Sprintf("%v %s%c", p.PPN(), p.Opts().AccessType, u)
}

// empty returns true if no entry in e is valid.
func (e *PTEs) empty() bool {
	for _, p := range e {
		if p.Valid() {
			return false
		}
	}
	return true
}
