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

// Package hostarch describes the page geometry and address types shared by
// the frame allocator, the page tables and the memory manager.
package hostarch

import (
	"encoding/binary"
)

const (
	// PageShift is the binary log of the page size.
	PageShift = 12

	// PageSize is the size of a page in bytes.
	PageSize = 1 << PageShift

	// PTEShift is the number of VPN bits consumed by one page table level.
	PTEShift = 9

	// PTEsPerTable is the number of entries in one page table node.
	PTEsPerTable = 1 << PTEShift

	// PageTableLevels is the depth of the page table radix tree.
	PageTableLevels = 3

	// VPNBits is the number of significant bits in a virtual page number.
	VPNBits = PTEShift * PageTableLevels

	// MaxVPN is one past the largest virtual page number that can be mapped.
	MaxVPN = VPN(1) << VPNBits
)

// ByteOrder is the byte order of records exchanged with user memory.
var ByteOrder = binary.LittleEndian
