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

// Package pagetables provides a generic implementation of pagetables.
//
// The tables form a three level radix tree of 512-entry nodes indexed by
// successive 9-bit segments of the virtual page number, most significant
// first, as in RISC-V SV39. Only 4K leaves are supported.
package pagetables

import (
	"fmt"

	"teachos.dev/uspace/pkg/errors/mmerr"
	"teachos.dev/uspace/pkg/hostarch"
)

// PageTables is a set of page tables.
//
// PageTables does not own the frames it maps; releasing them is the
// caller's responsibility. PageTables is not safe for concurrent use.
type PageTables struct {
	// Allocator is used to allocate nodes.
	Allocator Allocator

	// root is the root table. It is never freed.
	root *PTEs

	// leaves is the number of valid leaf entries.
	leaves int
}

// New returns new PageTables.
func New(a Allocator) *PageTables {
	p := &PageTables{Allocator: a}
	_, p.root = a.NewPTEs()
	return p
}

// index returns the entry index of vpn at level, where level 0 is the leaf
// level.
func index(vpn hostarch.VPN, level int) int {
	return int(vpn>>(hostarch.PTEShift*level)) & (hostarch.PTEsPerTable - 1)
}

// walk returns the leaf entry for vpn. If alloc is true, missing tables are
// created; otherwise walk returns nil when the path does not exist. If path
// is non-nil it receives the entries followed at each non-leaf level, from
// the root down.
func (p *PageTables) walk(vpn hostarch.VPN, alloc bool, path *[hostarch.PageTableLevels - 1]*PTE) *PTE {
	table := p.root
	for level := hostarch.PageTableLevels - 1; level > 0; level-- {
		entry := &table[index(vpn, level)]
		if !entry.Valid() {
			if !alloc {
				return nil
			}
			node, _ := p.Allocator.NewPTEs()
			entry.setPageTable(node)
		}
		if path != nil {
			path[hostarch.PageTableLevels-1-level] = entry
		}
		table = p.Allocator.LookupPTEs(entry.table())
	}
	return &table[index(vpn, 0)]
}

func checkVPN(vpn hostarch.VPN) error {
	if vpn >= hostarch.MaxVPN {
		return fmt.Errorf("%v: %w", vpn, mmerr.ErrOutOfRange)
	}
	return nil
}

// Map installs a mapping from vpn to ppn with the given options.
//
// It returns ErrAlreadyMapped if vpn already has a valid entry and
// ErrInvalidPermissions if opts grants no access.
func (p *PageTables) Map(vpn hostarch.VPN, ppn hostarch.PPN, opts MapOpts) error {
	if err := checkVPN(vpn); err != nil {
		return err
	}
	if !opts.AccessType.Any() {
		return mmerr.ErrInvalidPermissions
	}
	entry := p.walk(vpn, true, nil)
	if entry.Valid() {
		return fmt.Errorf("%v -> %v: %w", vpn, entry.PPN(), mmerr.ErrAlreadyMapped)
	}
	entry.Set(ppn, opts)
	p.leaves++
	return nil
}

// Unmap removes the mapping for vpn and returns the frame it pointed to.
// Tables left empty are freed. It returns ErrNotMapped if vpn has no valid
// entry.
func (p *PageTables) Unmap(vpn hostarch.VPN) (hostarch.PPN, error) {
	if err := checkVPN(vpn); err != nil {
		return 0, err
	}
	var path [hostarch.PageTableLevels - 1]*PTE
	entry := p.walk(vpn, false, &path)
	if entry == nil || !entry.Valid() {
		return 0, fmt.Errorf("%v: %w", vpn, mmerr.ErrNotMapped)
	}
	ppn := entry.PPN()
	entry.Clear()
	p.leaves--

	// Free tables bottom up while they are empty.
	for i := len(path) - 1; i >= 0; i-- {
		node := path[i].table()
		if !p.Allocator.LookupPTEs(node).empty() {
			break
		}
		path[i].Clear()
		p.Allocator.FreePTEs(node)
	}
	return ppn, nil
}

// Translate returns the leaf entry for vpn, if valid. It has no side
// effects.
func (p *PageTables) Translate(vpn hostarch.VPN) (PTE, bool) {
	if vpn >= hostarch.MaxVPN {
		return 0, false
	}
	entry := p.walk(vpn, false, nil)
	if entry == nil || !entry.Valid() {
		return 0, false
	}
	return *entry, true
}

// Len returns the number of mapped pages.
func (p *PageTables) Len() int {
	return p.leaves
}

// Walk calls fn for every valid leaf in ascending VPN order, stopping early
// if fn returns false.
func (p *PageTables) Walk(fn func(vpn hostarch.VPN, pte PTE) bool) {
	p.walkTable(p.root, hostarch.PageTableLevels-1, 0, fn)
}

func (p *PageTables) walkTable(table *PTEs, level int, prefix hostarch.VPN, fn func(hostarch.VPN, PTE) bool) bool {
	for i, entry := range table {
		if !entry.Valid() {
			continue
		}
		vpn := prefix | hostarch.VPN(i)<<(hostarch.PTEShift*level)
		if level == 0 {
			if !fn(vpn, entry) {
				return false
			}
			continue
		}
		if !p.walkTable(p.Allocator.LookupPTEs(entry.table()), level-1, vpn, fn) {
			return false
		}
	}
	return true
}
