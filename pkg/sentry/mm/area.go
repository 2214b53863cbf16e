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

package mm

import (
	"fmt"

	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/ring0/pagetables"
	"teachos.dev/uspace/pkg/sentry/pgalloc"
)

// area is a contiguous run of pages sharing one set of permissions, each
// page backed by a frame the area owns.
type area struct {
	// start is the first page.
	start hostarch.VPN

	// frames[i] backs page start+i.
	frames []hostarch.PPN

	// perms are the permissions of every page.
	perms hostarch.AccessType

	// hint is shown in place of a file name in maps output.
	hint string
}

// newArea creates an area of pages pages at start. On failure nothing is
// left mapped or allocated.
func newArea(pt *pagetables.PageTables, mf *pgalloc.MemoryFile, start hostarch.VPN, pages uint64, perms hostarch.AccessType, hint string) (*area, error) {
	a := &area{
		start:  start,
		frames: make([]hostarch.PPN, 0, pages),
		perms:  perms,
		hint:   hint,
	}
	if err := a.growTo(pt, mf, start+hostarch.VPN(pages)); err != nil {
		return nil, err
	}
	return a, nil
}

// end returns one past the last page.
func (a *area) end() hostarch.VPN {
	return a.start + hostarch.VPN(len(a.frames))
}

// pages returns the number of pages in a.
func (a *area) pages() uint64 {
	return uint64(len(a.frames))
}

// addrRange returns the virtual addresses spanned by a.
func (a *area) addrRange() hostarch.AddrRange {
	return hostarch.AddrRange{Start: a.start.Addr(), End: a.end().Addr()}
}

func (a *area) info() AreaInfo {
	return AreaInfo{Range: a.addrRange(), Perms: a.perms, Hint: a.hint}
}

// growTo extends a up to end, allocating and mapping a zeroed frame for each
// new page. If any page cannot be added, the pages added by this call are
// removed again and the error is returned.
func (a *area) growTo(pt *pagetables.PageTables, mf *pgalloc.MemoryFile, end hostarch.VPN) error {
	oldEnd := a.end()
	opts := pagetables.MapOpts{AccessType: a.perms, User: true}
	for vpn := oldEnd; vpn < end; vpn++ {
		ppn, err := mf.Allocate()
		if err != nil {
			a.shrinkTo(pt, mf, oldEnd)
			return err
		}
		if err := pt.Map(vpn, ppn, opts); err != nil {
			mf.Release(ppn)
			a.shrinkTo(pt, mf, oldEnd)
			return err
		}
		a.frames = append(a.frames, ppn)
	}
	return nil
}

// shrinkTo removes the pages of a at and above end, unmapping them and
// releasing their frames.
func (a *area) shrinkTo(pt *pagetables.PageTables, mf *pgalloc.MemoryFile, end hostarch.VPN) {
	if end < a.start {
		end = a.start
	}
	keep := int(end - a.start)
	for i := len(a.frames) - 1; i >= keep; i-- {
		vpn := a.start + hostarch.VPN(i)
		ppn, err := pt.Unmap(vpn)
		if err != nil {
			panic(fmt.Sprintf("area %v: page %v missing from page tables: %v", a.addrRange(), vpn, err))
		}
		if ppn != a.frames[i] {
			panic(fmt.Sprintf("area %v: page %v mapped to %v, area owns %v", a.addrRange(), vpn, ppn, a.frames[i]))
		}
		mf.Release(ppn)
	}
	if keep < len(a.frames) {
		a.frames = a.frames[:keep]
	}
}

// destroy unmaps every page of a and releases every frame.
func (a *area) destroy(pt *pagetables.PageTables, mf *pgalloc.MemoryFile) {
	a.shrinkTo(pt, mf, a.start)
}
