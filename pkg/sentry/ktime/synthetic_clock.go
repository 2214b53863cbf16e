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
	"sync/atomic"
	"time"
)

// SyntheticClock is a Clock whose current time is set manually by calling
// Store or Add. The zero value is a clock at its epoch.
type SyntheticClock struct {
	now atomic.Int64
}

// Now implements Clock.Now.
func (c *SyntheticClock) Now() Time {
	return FromNanoseconds(c.now.Load())
}

// Store sets c's current time to now.
//
// Preconditions: now is not before c's current time.
func (c *SyntheticClock) Store(now Time) {
	if old := c.now.Swap(now.Nanoseconds()); old > now.Nanoseconds() {
		panic("SyntheticClock moved backwards to " + now.String())
	}
}

// Add increases c's current time by d.
//
// Preconditions: d >= 0.
func (c *SyntheticClock) Add(d time.Duration) {
	if d < 0 {
		panic("SyntheticClock.Add with negative duration " + d.String())
	}
	c.now.Add(d.Nanoseconds())
}
