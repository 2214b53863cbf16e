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
	"github.com/google/btree"
	"teachos.dev/uspace/pkg/hostarch"
)

// areaSetDegree is the B-tree degree of an areaSet.
const areaSetDegree = 8

// areaSet is an ordered set of pairwise disjoint areas keyed by start page.
type areaSet struct {
	tree *btree.BTreeG[*area]
}

func areaLess(a, b *area) bool {
	return a.start < b.start
}

func newAreaSet() areaSet {
	return areaSet{tree: btree.NewG(areaSetDegree, areaLess)}
}

// key returns a probe for lookups by start page.
func key(vpn hostarch.VPN) *area {
	return &area{start: vpn}
}

// insert adds a.
//
// Preconditions: a does not overlap any area in s.
func (s areaSet) insert(a *area) {
	if _, dup := s.tree.ReplaceOrInsert(a); dup {
		panic("duplicate area start " + a.start.String())
	}
}

// remove removes the area starting at a.start.
func (s areaSet) remove(a *area) {
	s.tree.Delete(a)
}

// lookup returns the area starting exactly at vpn.
func (s areaSet) lookup(vpn hostarch.VPN) (*area, bool) {
	return s.tree.Get(key(vpn))
}

// findContaining returns the area containing vpn.
func (s areaSet) findContaining(vpn hostarch.VPN) (*area, bool) {
	var found *area
	s.tree.DescendLessOrEqual(key(vpn), func(a *area) bool {
		if vpn < a.end() {
			found = a
		}
		return false
	})
	return found, found != nil
}

// overlaps returns true if any area intersects [start, end).
func (s areaSet) overlaps(start, end hostarch.VPN) bool {
	if start >= end {
		return false
	}
	// Areas are disjoint, so only the last area starting before end can
	// reach into the range.
	hit := false
	s.tree.DescendLessOrEqual(key(end-1), func(a *area) bool {
		hit = a.end() > start
		return false
	})
	return hit
}

// ascendFrom calls fn for each area starting at or after vpn, in order,
// until fn returns false.
func (s areaSet) ascendFrom(vpn hostarch.VPN, fn func(a *area) bool) {
	s.tree.AscendGreaterOrEqual(key(vpn), fn)
}

// ascend calls fn for each area in order until fn returns false.
func (s areaSet) ascend(fn func(a *area) bool) {
	s.tree.Ascend(fn)
}

func (s areaSet) len() int {
	return s.tree.Len()
}

func (s areaSet) clear() {
	s.tree.Clear(false)
}
