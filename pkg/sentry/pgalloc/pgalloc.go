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

// Package pgalloc contains the frame allocator.
//
// Physical memory is emulated by a single anonymous host mapping. Frames are
// named by physical page number; the frame with index i in the mapping has
// PPN BasePPN()+i. Handing out PPNs rather than pointers lets a freed frame
// be reused without stale references into it.
package pgalloc

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"teachos.dev/uspace/pkg/bitmap"
	"teachos.dev/uspace/pkg/errors/mmerr"
	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/log"
)

// DefaultBasePhysAddr is the physical address of the first frame when
// MemoryFileOpts.BasePhysAddr is zero. It matches the first free address
// after the kernel image on the QEMU virt board.
const DefaultBasePhysAddr = 0x80800000

// MemoryFileOpts provides options to NewMemoryFile.
type MemoryFileOpts struct {
	// Frames is the number of frames managed by the MemoryFile.
	Frames uint64

	// BasePhysAddr is the physical address of the first frame. It must be
	// page aligned. If zero, DefaultBasePhysAddr is used.
	BasePhysAddr uint64

	// Logger receives warnings about misuse, such as releasing a frame that
	// is not allocated. Warnings are rate limited. If nil, the global logger
	// is used.
	Logger log.Logger
}

// MemoryFile is a pool of physical frames.
//
// MemoryFile is safe for concurrent use; it is shared by every address
// space.
type MemoryFile struct {
	// basePPN is the PPN of the frame at offset 0 of mapping. Immutable.
	basePPN hostarch.PPN

	// warn is a rate-limited logger for misuse warnings. Immutable.
	warn log.Logger

	// mu protects the fields below.
	mu sync.Mutex

	// mapping backs every frame. It is nil after Destroy.
	mapping []byte

	// used has one bit per frame, set while the frame is allocated.
	used bitmap.Bitmap
}

// NewMemoryFile creates a MemoryFile holding opts.Frames zeroed frames.
func NewMemoryFile(opts MemoryFileOpts) (*MemoryFile, error) {
	if opts.Frames == 0 {
		return nil, fmt.Errorf("frame count must be positive")
	}
	if opts.Frames > math.MaxUint32 || opts.Frames > math.MaxInt/hostarch.PageSize {
		return nil, fmt.Errorf("frame count %d too large", opts.Frames)
	}
	base := opts.BasePhysAddr
	if base == 0 {
		base = DefaultBasePhysAddr
	}
	if !hostarch.Addr(base).IsPageAligned() {
		return nil, fmt.Errorf("base physical address %#x not page-aligned", base)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Log()
	}

	mapping, err := unix.Mmap(-1, 0, int(opts.Frames*hostarch.PageSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("failed to map %d frames: %w", opts.Frames, err)
	}
	return &MemoryFile{
		basePPN: hostarch.PPN(base >> hostarch.PageShift),
		warn:    log.RateLimitedLogger(logger, time.Second),
		mapping: mapping,
		used:    bitmap.New(uint32(opts.Frames)),
	}, nil
}

// Allocate returns the lowest-numbered free frame. The frame's contents are
// zeroed. It returns ErrOutOfMemory if every frame is in use.
func (f *MemoryFile) Allocate() (hostarch.PPN, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mapping == nil {
		return 0, fmt.Errorf("allocate from destroyed MemoryFile: %w", mmerr.ErrOutOfMemory)
	}
	idx, err := f.used.FirstZero(0)
	if err != nil {
		return 0, mmerr.ErrOutOfMemory
	}
	f.used.Add(idx)
	clear(f.frameLocked(idx))
	return f.basePPN + hostarch.PPN(idx), nil
}

// Release returns a frame to the pool. Releasing a frame that is not
// allocated, or that does not belong to f, has no effect other than a
// warning.
func (f *MemoryFile) Release(ppn hostarch.PPN) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.indexLocked(ppn)
	if !ok || !f.used.Remove(idx) {
		f.warn.Warningf("pgalloc: release of unallocated frame %v", ppn)
	}
}

// FrameBytes returns the contents of an allocated frame. The returned slice
// aliases the frame and is valid until the frame is released.
func (f *MemoryFile) FrameBytes(ppn hostarch.PPN) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.indexLocked(ppn)
	if !ok || !f.used.Contains(idx) {
		return nil, fmt.Errorf("frame %v: %w", ppn, mmerr.ErrNotMapped)
	}
	return f.frameLocked(idx), nil
}

// IsAllocated returns true if ppn is a frame of f that is currently in use.
func (f *MemoryFile) IsAllocated(ppn hostarch.PPN) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.indexLocked(ppn)
	return ok && f.used.Contains(idx)
}

// Allocated returns the allocated frames in ascending order.
func (f *MemoryFile) Allocated() []hostarch.PPN {
	f.mu.Lock()
	defer f.mu.Unlock()
	idxs := f.used.ToSlice()
	ppns := make([]hostarch.PPN, len(idxs))
	for i, idx := range idxs {
		ppns[i] = f.basePPN + hostarch.PPN(idx)
	}
	return ppns
}

// TotalFrames returns the number of frames managed by f.
func (f *MemoryFile) TotalFrames() uint64 {
	return uint64(f.used.Size())
}

// UsedFrames returns the number of allocated frames.
func (f *MemoryFile) UsedFrames() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(f.used.GetNumOnes())
}

// FreeFrames returns the number of frames available to Allocate.
func (f *MemoryFile) FreeFrames() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(f.used.Size() - f.used.GetNumOnes())
}

// BasePPN returns the PPN of the first frame.
func (f *MemoryFile) BasePPN() hostarch.PPN {
	return f.basePPN
}

// Destroy releases the host mapping. Frames still allocated are dropped.
// Subsequent calls to Allocate fail.
func (f *MemoryFile) Destroy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mapping == nil {
		return nil
	}
	if n := f.used.GetNumOnes(); n != 0 {
		log.Infof("pgalloc: destroying MemoryFile with %d frames still allocated", n)
	}
	err := unix.Munmap(f.mapping)
	f.mapping = nil
	return err
}

// String implements fmt.Stringer.String.
func (f *MemoryFile) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("MemoryFile{base: %v, used: %d/%d}", f.basePPN, f.used.GetNumOnes(), f.used.Size())
}

// Preconditions: f.mu must be locked.
func (f *MemoryFile) indexLocked(ppn hostarch.PPN) (uint32, bool) {
	if ppn < f.basePPN || f.mapping == nil {
		return 0, false
	}
	idx := uint64(ppn - f.basePPN)
	if idx >= uint64(f.used.Size()) {
		return 0, false
	}
	return uint32(idx), true
}

// Preconditions: f.mu must be locked. idx < f.used.Size().
func (f *MemoryFile) frameLocked(idx uint32) []byte {
	off := uint64(idx) * hostarch.PageSize
	return f.mapping[off : off+hostarch.PageSize : off+hostarch.PageSize]
}
