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

package hostarch

import (
	"fmt"
)

// AddrRange is a half-open range of addresses [Start, End).
type AddrRange struct {
	Start Addr
	End   Addr
}

// String implements fmt.Stringer.String.
func (r AddrRange) String() string {
	return fmt.Sprintf("[%#x, %#x)", uint64(r.Start), uint64(r.End))
}

// WellFormed returns true if r.Start <= r.End.
func (r AddrRange) WellFormed() bool {
	return r.Start <= r.End
}

// Length returns the length of the range.
func (r AddrRange) Length() uint64 {
	return uint64(r.End - r.Start)
}

// Contains returns true if r contains x.
func (r AddrRange) Contains(x Addr) bool {
	return r.Start <= x && x < r.End
}

// Overlaps returns true if r and r2 overlap.
func (r AddrRange) Overlaps(r2 AddrRange) bool {
	return r.Start < r2.End && r2.Start < r.End
}

// IsSupersetOf returns true if r is a superset of r2; that is, the range r2 is
// contained within r.
func (r AddrRange) IsSupersetOf(r2 AddrRange) bool {
	return r.Start <= r2.Start && r.End >= r2.End
}

// Intersect returns a range consisting of the intersection between r and r2.
// If r and r2 do not overlap, Intersect returns a range with unspecified
// bounds, but for which Length() == 0.
func (r AddrRange) Intersect(r2 AddrRange) AddrRange {
	if r.Start < r2.Start {
		r.Start = r2.Start
	}
	if r.End > r2.End {
		r.End = r2.End
	}
	if r.End < r.Start {
		r.End = r.Start
	}
	return r
}

// IsPageAligned returns true if both r.Start and r.End are page-aligned.
func (r AddrRange) IsPageAligned() bool {
	return r.Start.IsPageAligned() && r.End.IsPageAligned()
}

// VPNs returns the range of virtual page numbers touched by r. The returned
// end is exclusive.
//
// Preconditions: r.WellFormed().
func (r AddrRange) VPNs() (start, end VPN) {
	if r.Length() == 0 {
		return r.Start.VPN(), r.Start.VPN()
	}
	return r.Start.VPN(), (r.End-1).VPN() + 1
}

// ForEachPage calls fn for each page-local piece of r, in ascending address
// order. off is the offset of the piece from r.Start. Iteration stops early
// if fn returns false.
func (r AddrRange) ForEachPage(fn func(vpn VPN, pageOff uint64, off uint64, n uint64) bool) {
	for addr := r.Start; addr < r.End; {
		next := addr.RoundDown() + PageSize
		if next > r.End || next < addr {
			next = r.End
		}
		if !fn(addr.VPN(), addr.PageOffset(), uint64(addr-r.Start), uint64(next-addr)) {
			return
		}
		addr = next
	}
}
