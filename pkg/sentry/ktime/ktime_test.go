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

package ktime

import (
	"testing"
	"time"

	"teachos.dev/uspace/pkg/abi/linux"
)

func TestSyntheticClockNow(t *testing.T) {
	var c SyntheticClock
	if got := c.Now(); got.Nanoseconds() != 0 {
		t.Errorf("zero-value SyntheticClock: Now() = %v, want 0", got)
	}
	want := FromSeconds(1)
	c.Store(want)
	if got := c.Now(); got != want {
		t.Errorf("after Store: Now() = %v, want %v", got, want)
	}
	c.Add(10 * time.Second)
	if got, want := c.Now(), FromSeconds(11); got != want {
		t.Errorf("after Add: Now() = %v, want %v", got, want)
	}
}

func TestSyntheticClockBackwardsPanics(t *testing.T) {
	var c SyntheticClock
	c.Store(FromSeconds(5))
	defer func() {
		if recover() == nil {
			t.Errorf("Store to an earlier time did not panic")
		}
	}()
	c.Store(FromSeconds(4))
}

func TestHostClockMonotonic(t *testing.T) {
	c := NewHostClock()
	a := c.Now()
	b := c.Now()
	if b.Before(a) {
		t.Errorf("HostClock went backwards: %v then %v", a, b)
	}
	if a.Nanoseconds() < 0 {
		t.Errorf("HostClock.Now() = %v, want >= 0", a)
	}
}

func TestTimeVal(t *testing.T) {
	for _, test := range []struct {
		t    Time
		want linux.TimeVal
	}{
		{ZeroTime, linux.TimeVal{}},
		{FromNanoseconds(1999), linux.TimeVal{Usec: 1}},
		{FromNanoseconds(3_000_250_000), linux.TimeVal{Sec: 3, Usec: 250}},
		{FromNanoseconds(-5), linux.TimeVal{}},
	} {
		if got := test.t.TimeVal(); got != test.want {
			t.Errorf("%v.TimeVal() = %+v, want %+v", test.t, got, test.want)
		}
	}
}

func TestMilliseconds(t *testing.T) {
	if got := FromSeconds(2).Add(1500 * time.Microsecond).Milliseconds(); got != 2001 {
		t.Errorf("Milliseconds() = %d, want 2001", got)
	}
	if got := FromSeconds(3).Sub(FromSeconds(1)); got != 2*time.Second {
		t.Errorf("Sub() = %v, want 2s", got)
	}
}
