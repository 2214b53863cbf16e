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
	"math"

	"teachos.dev/uspace/pkg/context"
	"teachos.dev/uspace/pkg/errors/mmerr"
	"teachos.dev/uspace/pkg/hostarch"
)

// checkRange validates a user-supplied (addr, length) pair and returns the
// pages it spans.
//
// Preconditions: mm.layout is immutable, so mm.mu need not be locked.
func (mm *MemoryManager) checkRange(addr hostarch.Addr, length uint64) (start, end hostarch.VPN, err error) {
	if !addr.IsPageAligned() {
		return 0, 0, mmerr.ErrInvalidAlignment
	}
	if length == 0 {
		return 0, 0, mmerr.ErrInvalidLength
	}
	pages, ok := hostarch.PagesFor(length)
	if !ok {
		return 0, 0, mmerr.ErrOutOfRange
	}
	ar, ok := addr.ToRange(pages << hostarch.PageShift)
	if !ok || ar.Start < mm.layout.MinAddr || ar.End > mm.layout.MaxAddr {
		return 0, 0, mmerr.ErrOutOfRange
	}
	start, end = ar.VPNs()
	return start, end, nil
}

// overlapsLocked returns true if [start, end) intersects any area, heap
// included.
//
// Preconditions: mm.mu must be locked.
func (mm *MemoryManager) overlapsLocked(start, end hostarch.VPN) bool {
	if mm.heap.pages() != 0 && start < mm.heap.end() && mm.heap.start < end {
		return true
	}
	return mm.areas.overlaps(start, end)
}

// MMap creates an anonymous mapping of length bytes, rounded up to whole
// pages, at addr with permissions at. Every page is backed by a newly
// allocated zeroed frame. It returns the number of bytes reserved.
//
// addr must be page aligned and the range must not intersect any existing
// area, including the heap; existing mappings are never replaced.
func (mm *MemoryManager) MMap(ctx context.Context, addr hostarch.Addr, length uint64, at hostarch.AccessType) (uint64, error) {
	start, end, err := mm.checkRange(addr, length)
	if err != nil {
		return 0, err
	}
	if !at.Any() {
		return 0, mmerr.ErrInvalidPermissions
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.overlapsLocked(start, end) {
		return 0, mmerr.ErrOverlap
	}
	a, err := newArea(mm.pt, mm.mf, start, uint64(end-start), at, "")
	if err != nil {
		return 0, err
	}
	mm.areas.insert(a)
	ctx.Debugf("mm: mapped %v %v", a.addrRange(), at)
	return a.pages() << hostarch.PageShift, nil
}

// MUnmap removes the mappings covering [addr, addr+length), rounded up to
// whole pages, and releases their frames.
//
// The range must be exactly the union of one or more whole areas laid end
// to end; splitting an area is not supported. The heap cannot be unmapped.
// Otherwise MUnmap returns ErrNotMapped and changes nothing.
func (mm *MemoryManager) MUnmap(ctx context.Context, addr hostarch.Addr, length uint64) error {
	start, end, err := mm.checkRange(addr, length)
	if err != nil {
		return err
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	var covered []*area
	next := start
	mm.areas.ascendFrom(start, func(a *area) bool {
		if a.start != next || a.end() > end {
			return false
		}
		covered = append(covered, a)
		next = a.end()
		return next < end
	})
	if next != end {
		return fmt.Errorf("[%v, %v): %w", start.Addr(), end.Addr(), mmerr.ErrNotMapped)
	}
	for _, a := range covered {
		mm.areas.remove(a)
		a.destroy(mm.pt, mm.mf)
	}
	ctx.Debugf("mm: unmapped [%v, %v) in %d areas", start.Addr(), end.Addr(), len(covered))
	return nil
}

// BrkSetup moves the heap to addr, discarding any pages the current heap
// holds. The break is set to addr.
func (mm *MemoryManager) BrkSetup(ctx context.Context, addr hostarch.Addr) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if err := mm.checkHeapBaseLocked(addr); err != nil {
		return err
	}
	mm.heap.destroy(mm.pt, mm.mf)
	mm.setHeapBaseLocked(addr)
	ctx.Debugf("mm: heap base set to %v", addr)
	return nil
}

// Brk returns the current program break.
func (mm *MemoryManager) Brk() hostarch.Addr {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.brk
}

// HeapBase returns the lowest value the program break may take.
func (mm *MemoryManager) HeapBase() hostarch.Addr {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.heapBase
}

// Sbrk moves the program break by delta bytes and returns the previous
// break. Pages entering the heap are backed by new zeroed frames; pages
// leaving it are unmapped and their frames released.
//
// Sbrk fails with ErrBrkUnderflow if the break would move below the heap
// base, ErrOutOfRange if it would leave the address space, ErrOverlap if the
// heap would grow into another area, and ErrOutOfMemory if frames run out.
// On failure the break is unchanged.
func (mm *MemoryManager) Sbrk(ctx context.Context, delta int64) (hostarch.Addr, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	old := mm.brk
	var newBrk hostarch.Addr
	if delta < 0 {
		shrink := uint64(-delta)
		if delta == math.MinInt64 || shrink > uint64(old-mm.heapBase) {
			return old, mmerr.ErrBrkUnderflow
		}
		newBrk = old - hostarch.Addr(shrink)
	} else {
		end, ok := old.AddLength(uint64(delta))
		if !ok || end > mm.layout.MaxAddr {
			return old, mmerr.ErrOutOfRange
		}
		newBrk = end
	}

	oldEnd := mm.heap.end()
	newEnd := newBrk.MustRoundUp().VPN()
	switch {
	case newEnd > oldEnd:
		if mm.areas.overlaps(oldEnd, newEnd) {
			return old, mmerr.ErrOverlap
		}
		if err := mm.heap.growTo(mm.pt, mm.mf, newEnd); err != nil {
			return old, err
		}
	case newEnd < oldEnd:
		mm.heap.shrinkTo(mm.pt, mm.mf, newEnd)
	}
	mm.brk = newBrk
	if newEnd != oldEnd {
		ctx.Debugf("mm: break %v -> %v, heap %v", old, newBrk, mm.heap.addrRange())
	}
	return old, nil
}
