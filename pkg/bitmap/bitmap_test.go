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

package bitmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFirstZeroLowestFirst(t *testing.T) {
	b := New(130)
	for i := uint32(0); i < 70; i++ {
		b.Add(i)
	}
	b.Remove(3)
	if got, err := b.FirstZero(0); err != nil || got != 3 {
		t.Errorf("FirstZero(0) = (%d, %v), want (3, nil)", got, err)
	}
	if got, err := b.FirstZero(4); err != nil || got != 70 {
		t.Errorf("FirstZero(4) = (%d, %v), want (70, nil)", got, err)
	}
}

func TestFirstZeroRespectsSize(t *testing.T) {
	b := New(3)
	for i := uint32(0); i < 3; i++ {
		if !b.Add(i) {
			t.Fatalf("Add(%d) = false on a clear bit", i)
		}
	}
	if got, err := b.FirstZero(0); err == nil {
		t.Errorf("FirstZero(0) on full bitmap = %d, want error", got)
	}
	if _, err := b.FirstZero(3); err == nil {
		t.Errorf("FirstZero(3) past the end succeeded, want error")
	}
}

func TestAddRemoveCounts(t *testing.T) {
	b := New(64)
	if !b.IsEmpty() {
		t.Fatalf("new bitmap is not empty")
	}
	b.Add(5)
	if b.Add(5) {
		t.Errorf("second Add(5) = true, want false")
	}
	if got := b.GetNumOnes(); got != 1 {
		t.Errorf("GetNumOnes() = %d, want 1", got)
	}
	if !b.Contains(5) || b.Contains(6) {
		t.Errorf("Contains(5), Contains(6) = %t, %t, want true, false", b.Contains(5), b.Contains(6))
	}
	if !b.Remove(5) {
		t.Errorf("Remove(5) = false, want true")
	}
	if b.Remove(5) {
		t.Errorf("second Remove(5) = true, want false")
	}
	if b.Remove(1000) {
		t.Errorf("Remove(1000) = true, want false")
	}
	if !b.IsEmpty() {
		t.Errorf("bitmap not empty after removing every bit")
	}
}

func TestFirstOneAndToSlice(t *testing.T) {
	b := New(200)
	for _, i := range []uint32{1, 3, 64, 199} {
		b.Add(i)
	}
	if got, err := b.FirstOne(4); err != nil || got != 64 {
		t.Errorf("FirstOne(4) = (%d, %v), want (64, nil)", got, err)
	}
	want := []uint32{1, 3, 64, 199}
	if diff := cmp.Diff(want, b.ToSlice()); diff != "" {
		t.Errorf("ToSlice() mismatch (-want +got):\n%s", diff)
	}
}
