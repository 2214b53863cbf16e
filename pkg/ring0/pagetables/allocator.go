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

package pagetables

// Allocator is used to allocate and map PTEs.
//
// Tables are named by node numbers stored in the PPN field of non-leaf
// entries. Node numbers are private to the Allocator; they are not frames.
type Allocator interface {
	// NewPTEs returns a new set of PTEs and its node number.
	NewPTEs() (uint64, *PTEs)

	// LookupPTEs looks up PTEs by node number.
	LookupPTEs(node uint64) *PTEs

	// FreePTEs marks a set of PTEs as freed.
	FreePTEs(node uint64)
}

// RuntimeAllocator is a trivial allocator that keeps tables on the Go heap.
type RuntimeAllocator struct {
	// nodes maps node numbers to tables.
	nodes map[uint64]*PTEs

	// next is the next node number to hand out. Zero is never used.
	next uint64
}

// NewRuntimeAllocator returns an allocator that uses runtime allocation.
func NewRuntimeAllocator() *RuntimeAllocator {
	return &RuntimeAllocator{
		nodes: make(map[uint64]*PTEs),
		next:  1,
	}
}

// NewPTEs implements Allocator.NewPTEs.
func (r *RuntimeAllocator) NewPTEs() (uint64, *PTEs) {
	node := r.next
	r.next++
	ptes := new(PTEs)
	r.nodes[node] = ptes
	return node, ptes
}

// LookupPTEs implements Allocator.LookupPTEs.
func (r *RuntimeAllocator) LookupPTEs(node uint64) *PTEs {
	ptes, ok := r.nodes[node]
	if !ok {
		panic("lookup of unknown page table node")
	}
	return ptes
}

// FreePTEs implements Allocator.FreePTEs.
func (r *RuntimeAllocator) FreePTEs(node uint64) {
	delete(r.nodes, node)
}

// Nodes returns the number of live tables.
func (r *RuntimeAllocator) Nodes() int {
	return len(r.nodes)
}
