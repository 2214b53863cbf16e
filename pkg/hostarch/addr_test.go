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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoundUp(t *testing.T) {
	for _, test := range []struct {
		in     Addr
		want   Addr
		wantOK bool
	}{
		{0, 0, true},
		{1, PageSize, true},
		{PageSize, PageSize, true},
		{PageSize + 1, 2 * PageSize, true},
		{^Addr(0), 0, false},
	} {
		got, ok := test.in.RoundUp()
		if got != test.want || ok != test.wantOK {
			t.Errorf("%v.RoundUp() = (%v, %t), want (%v, %t)", test.in, got, ok, test.want, test.wantOK)
		}
	}
}

func TestPagesFor(t *testing.T) {
	for _, test := range []struct {
		length uint64
		want   uint64
	}{
		{0, 0},
		{1, 1},
		{PageSize, 1},
		{PageSize + 1, 2},
		{3 * PageSize, 3},
	} {
		if got, ok := PagesFor(test.length); !ok || got != test.want {
			t.Errorf("PagesFor(%d) = (%d, %t), want (%d, true)", test.length, got, ok, test.want)
		}
	}
}

func TestVPNs(t *testing.T) {
	for _, test := range []struct {
		ar                 AddrRange
		wantStart, wantEnd VPN
	}{
		{AddrRange{0x1000, 0x2000}, 1, 2},
		{AddrRange{0x1ff8, 0x2008}, 1, 3},
		{AddrRange{0x1000, 0x1000}, 1, 1},
		{AddrRange{0x1001, 0x1002}, 1, 2},
	} {
		start, end := test.ar.VPNs()
		if start != test.wantStart || end != test.wantEnd {
			t.Errorf("%v.VPNs() = (%v, %v), want (%v, %v)", test.ar, start, end, test.wantStart, test.wantEnd)
		}
	}
}

type piece struct {
	VPN     VPN
	PageOff uint64
	Off     uint64
	N       uint64
}

func TestForEachPage(t *testing.T) {
	ar := AddrRange{Start: 2*PageSize - 8, End: 3*PageSize + 4}
	var got []piece
	ar.ForEachPage(func(vpn VPN, pageOff, off, n uint64) bool {
		got = append(got, piece{vpn, pageOff, off, n})
		return true
	})
	want := []piece{
		{1, PageSize - 8, 0, 8},
		{2, 0, 8, PageSize},
		{3, 0, PageSize + 8, 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ForEachPage pieces mismatch (-want +got):\n%s", diff)
	}
}

func TestForEachPageStopsEarly(t *testing.T) {
	ar := AddrRange{Start: 0, End: 4 * PageSize}
	calls := 0
	ar.ForEachPage(func(VPN, uint64, uint64, uint64) bool {
		calls++
		return calls < 2
	})
	if calls != 2 {
		t.Errorf("ForEachPage made %d calls, want 2", calls)
	}
}

func TestAccessTypeString(t *testing.T) {
	for _, test := range []struct {
		at   AccessType
		want string
	}{
		{NoAccess, "---"},
		{Read, "r--"},
		{ReadWrite, "rw-"},
		{AnyAccess, "rwx"},
		{Execute, "--x"},
	} {
		if got := test.at.String(); got != test.want {
			t.Errorf("%#v.String() = %q, want %q", test.at, got, test.want)
		}
	}
}

func TestSupersetOf(t *testing.T) {
	if !ReadWrite.SupersetOf(Read) {
		t.Errorf("ReadWrite.SupersetOf(Read) = false, want true")
	}
	if Read.SupersetOf(Write) {
		t.Errorf("Read.SupersetOf(Write) = true, want false")
	}
	if !Read.SupersetOf(NoAccess) {
		t.Errorf("Read.SupersetOf(NoAccess) = false, want true")
	}
}
