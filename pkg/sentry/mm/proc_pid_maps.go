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
	"bytes"
	"fmt"
	"io"
	"strings"
)

// mapsEntry returns a /proc/[pid]/maps style line for a, including the
// trailing newline.
func mapsEntry(a AreaInfo) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%08x-%08x %sp %08x %02x:%02x %d ", uint64(a.Range.Start), uint64(a.Range.End), a.Perms, 0, 0, 0, 0)
	if a.Hint != "" {
		// Per linux, we pad until the 74th character.
		if pad := 73 - b.Len(); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(a.Hint)
	}
	b.WriteString("\n")
	return b.Bytes()
}

// WriteMaps writes one maps line per area of mm to w.
func (mm *MemoryManager) WriteMaps(w io.Writer) error {
	for _, a := range mm.Areas() {
		if _, err := w.Write(mapsEntry(a)); err != nil {
			return err
		}
	}
	return nil
}

// String implements fmt.Stringer.String by returning the maps dump.
func (mm *MemoryManager) String() string {
	var b strings.Builder
	mm.WriteMaps(&b)
	return b.String()
}
