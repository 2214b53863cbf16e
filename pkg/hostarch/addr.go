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

// Addr represents a user virtual address.
type Addr uint64

// String implements fmt.Stringer.String.
func (v Addr) String() string {
	return fmt.Sprintf("%#x", uint64(v))
}

// RoundDown returns the address rounded down to the nearest page boundary.
func (v Addr) RoundDown() Addr {
	return v & ^Addr(PageSize-1)
}

// RoundUp returns the address rounded up to the nearest page boundary. ok is
// true iff rounding up did not wrap around.
func (v Addr) RoundUp() (addr Addr, ok bool) {
	addr = Addr(v + PageSize - 1).RoundDown()
	ok = addr >= v
	return
}

// MustRoundUp is equivalent to RoundUp, but panics if rounding up wraps
// around.
func (v Addr) MustRoundUp() Addr {
	addr, ok := v.RoundUp()
	if !ok {
		panic(fmt.Sprintf("hostarch.Addr(%d).RoundUp() wraps", v))
	}
	return addr
}

// PageOffset returns the offset of v into the current page.
func (v Addr) PageOffset() uint64 {
	return uint64(v & Addr(PageSize-1))
}

// IsPageAligned returns true if v.PageOffset() == 0.
func (v Addr) IsPageAligned() bool {
	return v.PageOffset() == 0
}

// VPN returns the number of the virtual page containing v.
func (v Addr) VPN() VPN {
	return VPN(v >> PageShift)
}

// AddLength adds the given length to start and returns the result. ok is true
// iff adding the length did not overflow the range of Addr.
//
// Note: This function is usually used to get the end of an address range
// defined by its start address and length. Since the resulting end is
// exclusive, end == 0 is technically valid, and corresponds to a range that
// extends to the end of the address space, but ok will be false. This isn't
// expected to ever come up in practice.
func (v Addr) AddLength(length uint64) (end Addr, ok bool) {
	end = v + Addr(length)
	// The second half of the following check is needed in case uintptr is
	// smaller than 64 bits.
	ok = end >= v && length <= uint64(^Addr(0))
	return
}

// ToRange returns [v, v+length).
func (v Addr) ToRange(length uint64) (AddrRange, bool) {
	end, ok := v.AddLength(length)
	return AddrRange{v, end}, ok
}

// VPN is a virtual page number: a page-aligned address divided by PageSize.
type VPN uint64

// Addr returns the address of the first byte of the page.
func (p VPN) Addr() Addr {
	return Addr(p) << PageShift
}

// String implements fmt.Stringer.String.
func (p VPN) String() string {
	return fmt.Sprintf("vpn:%#x", uint64(p))
}

// PagesFor returns the number of pages needed to hold length bytes. ok is
// false if rounding length up to a page boundary overflows.
func PagesFor(length uint64) (pages uint64, ok bool) {
	rounded, ok := Addr(length).RoundUp()
	if !ok {
		return 0, false
	}
	return uint64(rounded) >> PageShift, true
}

// PPN is a physical page number: a physical address divided by PageSize.
type PPN uint64

// PhysAddr returns the physical address of the first byte of the frame.
func (p PPN) PhysAddr() uint64 {
	return uint64(p) << PageShift
}

// String implements fmt.Stringer.String.
func (p PPN) String() string {
	return fmt.Sprintf("ppn:%#x", uint64(p))
}
