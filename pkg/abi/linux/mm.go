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

package linux

import (
	"teachos.dev/uspace/pkg/hostarch"
)

// Protections for mmap(2).
const (
	PROT_NONE  = 0
	PROT_READ  = 1 << 0
	PROT_WRITE = 1 << 1
	PROT_EXEC  = 1 << 2

	// PROT_MASK covers every recognized protection bit.
	PROT_MASK = PROT_READ | PROT_WRITE | PROT_EXEC
)

// AccessTypeFromProt converts mmap protection bits to an AccessType. It
// returns false if prot has bits outside PROT_MASK or grants no access.
func AccessTypeFromProt(prot uint64) (hostarch.AccessType, bool) {
	if prot&^PROT_MASK != 0 || prot&PROT_MASK == 0 {
		return hostarch.NoAccess, false
	}
	return hostarch.AccessType{
		Read:    prot&PROT_READ != 0,
		Write:   prot&PROT_WRITE != 0,
		Execute: prot&PROT_EXEC != 0,
	}, true
}
