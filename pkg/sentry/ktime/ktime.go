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

// Package ktime provides the clocks tasks read their time from.
package ktime

import (
	"fmt"
	"math"
	"time"

	"teachos.dev/uspace/pkg/abi/linux"
)

// Time represents an instant with nanosecond precision, relative to the
// epoch of the Clock it was read from.
type Time struct {
	ns int64
}

var (
	// MaxTime is the highest possible time that can be represented by
	// Time.
	MaxTime = Time{ns: math.MaxInt64}

	// ZeroTime is the epoch of an unspecified Clock.
	ZeroTime = Time{ns: 0}
)

// FromNanoseconds returns a Time representing the point ns nanoseconds after
// an unspecified Clock's zero time.
func FromNanoseconds(ns int64) Time {
	return Time{ns}
}

// FromSeconds returns a Time representing the point s seconds after an
// unspecified Clock's zero time.
func FromSeconds(s int64) Time {
	if s > math.MaxInt64/time.Second.Nanoseconds() {
		return MaxTime
	}
	return Time{s * 1e9}
}

// Nanoseconds returns nanoseconds elapsed since the zero time in t's Clock
// domain.
func (t Time) Nanoseconds() int64 {
	return t.ns
}

// Microseconds returns microseconds elapsed since the zero time in t's Clock
// domain.
func (t Time) Microseconds() int64 {
	return t.ns / 1000
}

// Milliseconds returns milliseconds elapsed since the zero time in t's Clock
// domain.
func (t Time) Milliseconds() int64 {
	return t.ns / 1e6
}

// TimeVal converts t to a TimeVal. Negative times convert to the zero
// TimeVal.
func (t Time) TimeVal() linux.TimeVal {
	if t.ns < 0 {
		return linux.TimeVal{}
	}
	return linux.MicrosToTimeVal(uint64(t.Microseconds()))
}

// Add adds the duration of d to t.
func (t Time) Add(d time.Duration) Time {
	if t.ns > 0 && d.Nanoseconds() > math.MaxInt64-t.ns {
		return MaxTime
	}
	return Time{t.ns + d.Nanoseconds()}
}

// Before reports whether the instant t is before the instant u.
func (t Time) Before(u Time) bool {
	return t.ns < u.ns
}

// Sub returns the duration of t - u.
func (t Time) Sub(u Time) time.Duration {
	return time.Duration(t.ns - u.ns)
}

// String returns the time represented in nanoseconds as a string.
func (t Time) String() string {
	return fmt.Sprintf("%dns", t.Nanoseconds())
}

// A Clock is an abstract time source. Now never decreases.
type Clock interface {
	// Now returns the current time according to the Clock.
	Now() Time
}
