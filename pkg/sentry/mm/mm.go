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

// Package mm provides a memory management subsystem.
//
// A MemoryManager is the address space of one task: a page table plus an
// ordered set of areas, each a run of pages backed by frames it owns, and a
// heap area whose end follows the program break. Every page with a valid
// page table entry belongs to exactly one area.
//
// Lock order:
//
//	mm.mu
//	  pgalloc.MemoryFile.mu
package mm

import (
	"fmt"
	"sync"

	"teachos.dev/uspace/pkg/context"
	"teachos.dev/uspace/pkg/errors/mmerr"
	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/ring0/pagetables"
	"teachos.dev/uspace/pkg/sentry/pgalloc"
)

// Layout bounds the user portion of an address space.
type Layout struct {
	// MinAddr is the lowest mappable address.
	MinAddr hostarch.Addr

	// MaxAddr is one past the highest mappable address.
	MaxAddr hostarch.Addr
}

// DefaultLayout is the lower half of an SV39 address space.
var DefaultLayout = Layout{
	MinAddr: 0,
	MaxAddr: 1 << 38,
}

// CopyPolicy selects how CopyOut, CopyIn and ZeroOut behave when part of
// the range is not accessible.
type CopyPolicy int

const (
	// CopyAtomic checks every page of the range before transferring any
	// byte. A failed copy transfers nothing.
	CopyAtomic CopyPolicy = iota

	// CopyPartial transfers page by page and stops at the first
	// inaccessible page, returning the number of bytes transferred.
	CopyPartial
)

// String implements fmt.Stringer.String.
func (p CopyPolicy) String() string {
	switch p {
	case CopyAtomic:
		return "atomic"
	case CopyPartial:
		return "partial"
	default:
		return fmt.Sprintf("CopyPolicy(%d)", int(p))
	}
}

// ParseCopyPolicy parses the String form of a CopyPolicy.
func ParseCopyPolicy(s string) (CopyPolicy, error) {
	switch s {
	case "atomic":
		return CopyAtomic, nil
	case "partial":
		return CopyPartial, nil
	default:
		return 0, fmt.Errorf("invalid copy policy %q, must be atomic or partial", s)
	}
}

// Opts configures a MemoryManager.
type Opts struct {
	// Layout bounds the address space. The zero value selects
	// DefaultLayout.
	Layout Layout

	// HeapBase is the initial program break. It must be page aligned and
	// inside Layout.
	HeapBase hostarch.Addr

	// CopyPolicy is the policy used by the usermem.IO methods.
	CopyPolicy CopyPolicy
}

// MemoryManager implements a virtual address space.
//
// All methods are safe for concurrent use, although a task's address space
// is normally only touched by that task.
type MemoryManager struct {
	// mf provides frames. Immutable.
	mf *pgalloc.MemoryFile

	// layout and copyPolicy are immutable.
	layout     Layout
	copyPolicy CopyPolicy

	// mu protects the fields below.
	mu sync.Mutex

	// pt maps every page of every area, including the heap.
	pt *pagetables.PageTables

	// areas holds every area except the heap, keyed by start page.
	areas areaSet

	// heap backs [heap.start.Addr(), brk.RoundUp()). It is never in areas.
	heap *area

	// heapBase is the lowest value the break may take.
	heapBase hostarch.Addr

	// brk is the current program break.
	brk hostarch.Addr
}

// NewMemoryManager returns a new, empty MemoryManager whose frames come from
// mf.
func NewMemoryManager(mf *pgalloc.MemoryFile, opts Opts) (*MemoryManager, error) {
	layout := opts.Layout
	if layout == (Layout{}) {
		layout = DefaultLayout
	}
	if !layout.MinAddr.IsPageAligned() || !layout.MaxAddr.IsPageAligned() || layout.MinAddr >= layout.MaxAddr {
		return nil, fmt.Errorf("invalid layout [%v, %v)", layout.MinAddr, layout.MaxAddr)
	}
	if layout.MaxAddr.VPN() > hostarch.MaxVPN {
		return nil, fmt.Errorf("layout end %v beyond the page table reach %v", layout.MaxAddr, hostarch.MaxVPN.Addr())
	}
	mm := &MemoryManager{
		mf:         mf,
		layout:     layout,
		copyPolicy: opts.CopyPolicy,
		pt:         pagetables.New(pagetables.NewRuntimeAllocator()),
		areas:      newAreaSet(),
	}
	if err := mm.checkHeapBaseLocked(opts.HeapBase); err != nil {
		return nil, err
	}
	mm.setHeapBaseLocked(opts.HeapBase)
	return mm, nil
}

// checkHeapBaseLocked returns an error if addr cannot be the heap base.
//
// Preconditions: mm.mu must be locked, or mm must not yet be shared.
func (mm *MemoryManager) checkHeapBaseLocked(addr hostarch.Addr) error {
	if !addr.IsPageAligned() {
		return fmt.Errorf("heap base %v: %w", addr, mmerr.ErrInvalidAlignment)
	}
	if addr < mm.layout.MinAddr || addr >= mm.layout.MaxAddr {
		return fmt.Errorf("heap base %v: %w", addr, mmerr.ErrOutOfRange)
	}
	if mm.areas.overlaps(addr.VPN(), addr.VPN()+1) {
		return fmt.Errorf("heap base %v: %w", addr, mmerr.ErrOverlap)
	}
	return nil
}

// setHeapBaseLocked installs an empty heap at addr.
//
// Preconditions: mm.mu must be locked, or mm must not yet be shared. The
// current heap, if any, holds no pages. checkHeapBaseLocked(addr) succeeded.
func (mm *MemoryManager) setHeapBaseLocked(addr hostarch.Addr) {
	mm.heap = &area{start: addr.VPN(), perms: hostarch.ReadWrite, hint: "[heap]"}
	mm.heapBase = addr
	mm.brk = addr
}

// Layout returns the bounds of the address space.
func (mm *MemoryManager) Layout() Layout {
	return mm.layout
}

// MemoryFile returns the frame allocator backing mm.
func (mm *MemoryManager) MemoryFile() *pgalloc.MemoryFile {
	return mm.mf
}

// Translate returns the frame and permissions of the page containing addr.
func (mm *MemoryManager) Translate(addr hostarch.Addr) (hostarch.PPN, hostarch.AccessType, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	pte, ok := mm.pt.Translate(addr.VPN())
	if !ok {
		return 0, hostarch.NoAccess, false
	}
	return pte.PPN(), pte.Opts().AccessType, true
}

// AreaInfo describes one area of an address space.
type AreaInfo struct {
	Range hostarch.AddrRange
	Perms hostarch.AccessType
	Hint  string
}

// Areas returns every non-empty area in ascending address order. The heap
// is included while it holds at least one page.
func (mm *MemoryManager) Areas() []AreaInfo {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	var infos []AreaInfo
	mm.forEachAreaLocked(func(a *area) {
		infos = append(infos, a.info())
	})
	return infos
}

// forEachAreaLocked calls fn for every non-empty area, heap included, in
// ascending address order.
//
// Preconditions: mm.mu must be locked.
func (mm *MemoryManager) forEachAreaLocked(fn func(a *area)) {
	heapDone := mm.heap.pages() == 0
	mm.areas.ascend(func(a *area) bool {
		if !heapDone && mm.heap.start < a.start {
			fn(mm.heap)
			heapDone = true
		}
		fn(a)
		return true
	})
	if !heapDone {
		fn(mm.heap)
	}
}

// NumAreas returns the number of non-empty areas, heap included.
func (mm *MemoryManager) NumAreas() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	n := mm.areas.len()
	if mm.heap.pages() != 0 {
		n++
	}
	return n
}

// MappedPages returns the number of pages with a valid page table entry.
func (mm *MemoryManager) MappedPages() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.pt.Len()
}

// Release tears down the address space: every area, heap included, is
// unmapped and its frames returned. The MemoryManager is left empty with the
// break reset to the heap base.
func (mm *MemoryManager) Release(ctx context.Context) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	n := mm.areas.len()
	mm.areas.ascend(func(a *area) bool {
		a.destroy(mm.pt, mm.mf)
		return true
	})
	mm.areas.clear()
	mm.heap.destroy(mm.pt, mm.mf)
	mm.brk = mm.heapBase
	if mm.pt.Len() != 0 {
		panic(fmt.Sprintf("%d pages still mapped after release", mm.pt.Len()))
	}
	ctx.Debugf("mm: released %d areas and the heap", n)
}
