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
	"time"
)

// HostClock is a Clock backed by the host's monotonic clock. Its epoch is
// the moment it was created, standing in for machine boot.
type HostClock struct {
	epoch time.Time
}

// NewHostClock returns a HostClock whose epoch is now.
func NewHostClock() *HostClock {
	return &HostClock{epoch: time.Now()}
}

// Now implements Clock.Now.
func (c *HostClock) Now() Time {
	return FromNanoseconds(time.Since(c.epoch).Nanoseconds())
}
