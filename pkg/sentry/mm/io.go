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
	"teachos.dev/uspace/pkg/context"
	"teachos.dev/uspace/pkg/errors/mmerr"
	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/usermem"
)

// There are two ways to transfer data to or from user memory here:
//
//   - Under CopyAtomic, every page of the range is translated and checked
//     first, and bytes move only once the whole range is known to be
//     accessible.
//
//   - Under CopyPartial, each page is translated, checked and transferred in
//     turn, so a fault on a later page leaves earlier pages written.
//
// Either way a range is split at page boundaries and each piece reaches its
// frame through pgalloc.MemoryFile.FrameBytes. User addresses are never
// dereferenced directly.

// ioPiece is the part of an I/O range that falls on one page.
type ioPiece struct {
	// frame is the page's frame contents.
	frame []byte

	// pageOff is the offset of the piece within frame, off its offset within
	// the I/O buffer, and n its length.
	pageOff, off, n uint64
}

// CheckIORange is similar to hostarch.Addr.ToRange, but additionally
// requires the range to lie within the address space layout.
func (mm *MemoryManager) CheckIORange(addr hostarch.Addr, length int64) (hostarch.AddrRange, bool) {
	if length < 0 {
		return hostarch.AddrRange{}, false
	}
	ar, ok := addr.ToRange(uint64(length))
	return ar, ok && ar.Start >= mm.layout.MinAddr && ar.End <= mm.layout.MaxAddr
}

// translateIOError converts errors to ErrNotMapped, as is reported for all
// I/O errors originating from MM, logging the original.
func translateIOError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	ctx.Debugf("mm: I/O error: %v", err)
	return mmerr.ErrNotMapped
}

// framePageLocked returns the contents of the frame mapped at vpn, checking
// that the page is a user page permitting at.
//
// Preconditions: mm.mu must be locked.
func (mm *MemoryManager) framePageLocked(vpn hostarch.VPN, at hostarch.AccessType, ignorePermissions bool) ([]byte, error) {
	pte, ok := mm.pt.Translate(vpn)
	if !ok {
		return nil, mmerr.ErrNotMapped
	}
	if !ignorePermissions {
		opts := pte.Opts()
		if !opts.User || !opts.AccessType.SupersetOf(at) {
			return nil, mmerr.ErrNotMapped
		}
	}
	return mm.mf.FrameBytes(pte.PPN())
}

// withPages splits ar at page boundaries and calls fn on each piece, in
// address order, according to mm's copy policy. It returns the number of
// bytes handed to fn.
func (mm *MemoryManager) withPages(ctx context.Context, ar hostarch.AddrRange, at hostarch.AccessType, ignorePermissions bool, fn func(p ioPiece)) (uint64, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	var (
		done   uint64
		err    error
		pieces []ioPiece
	)
	ar.ForEachPage(func(vpn hostarch.VPN, pageOff, off, n uint64) bool {
		var frame []byte
		frame, err = mm.framePageLocked(vpn, at, ignorePermissions)
		if err != nil {
			return false
		}
		p := ioPiece{frame: frame, pageOff: pageOff, off: off, n: n}
		if mm.copyPolicy == CopyPartial {
			fn(p)
			done += n
			return true
		}
		pieces = append(pieces, p)
		return true
	})
	if err != nil {
		return done, translateIOError(ctx, err)
	}
	for _, p := range pieces {
		fn(p)
		done += p.n
	}
	return done, nil
}

// CopyOut implements usermem.IO.CopyOut.
func (mm *MemoryManager) CopyOut(ctx context.Context, addr hostarch.Addr, src []byte, opts usermem.IOOpts) (int, error) {
	ar, ok := mm.CheckIORange(addr, int64(len(src)))
	if !ok {
		return 0, mmerr.ErrNotMapped
	}
	if len(src) == 0 {
		return 0, nil
	}
	n, err := mm.withPages(ctx, ar, hostarch.Write, opts.IgnorePermissions, func(p ioPiece) {
		copy(p.frame[p.pageOff:p.pageOff+p.n], src[p.off:p.off+p.n])
	})
	return int(n), err
}

// CopyIn implements usermem.IO.CopyIn.
func (mm *MemoryManager) CopyIn(ctx context.Context, addr hostarch.Addr, dst []byte, opts usermem.IOOpts) (int, error) {
	ar, ok := mm.CheckIORange(addr, int64(len(dst)))
	if !ok {
		return 0, mmerr.ErrNotMapped
	}
	if len(dst) == 0 {
		return 0, nil
	}
	n, err := mm.withPages(ctx, ar, hostarch.Read, opts.IgnorePermissions, func(p ioPiece) {
		copy(dst[p.off:p.off+p.n], p.frame[p.pageOff:p.pageOff+p.n])
	})
	return int(n), err
}

// ZeroOut implements usermem.IO.ZeroOut.
func (mm *MemoryManager) ZeroOut(ctx context.Context, addr hostarch.Addr, toZero int64, opts usermem.IOOpts) (int64, error) {
	ar, ok := mm.CheckIORange(addr, toZero)
	if !ok {
		return 0, mmerr.ErrNotMapped
	}
	if toZero == 0 {
		return 0, nil
	}
	n, err := mm.withPages(ctx, ar, hostarch.Write, opts.IgnorePermissions, func(p ioPiece) {
		clear(p.frame[p.pageOff : p.pageOff+p.n])
	})
	return int64(n), err
}
