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
	"time"

	"teachos.dev/uspace/pkg/hostarch"
)

// SizeOfTimeVal is the size of a TimeVal struct in bytes.
const SizeOfTimeVal = 16

// TimeVal represents a point in time as seconds and microseconds since the
// timer's epoch. Both fields are machine words.
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

// MicrosToTimeVal splits a microsecond count into a TimeVal.
func MicrosToTimeVal(us uint64) TimeVal {
	return TimeVal{Sec: us / 1e6, Usec: us % 1e6}
}

// DurationToTimeVal converts d, truncated to microseconds, to a TimeVal.
func DurationToTimeVal(d time.Duration) TimeVal {
	return MicrosToTimeVal(uint64(d.Microseconds()))
}

// Micros returns tv as a microsecond count.
func (tv TimeVal) Micros() uint64 {
	return tv.Sec*1e6 + tv.Usec
}

// SizeBytes implements marshal.Marshallable.SizeBytes.
func (*TimeVal) SizeBytes() int {
	return SizeOfTimeVal
}

// MarshalBytes implements marshal.Marshallable.MarshalBytes.
func (tv *TimeVal) MarshalBytes(dst []byte) []byte {
	hostarch.ByteOrder.PutUint64(dst[0:], tv.Sec)
	hostarch.ByteOrder.PutUint64(dst[8:], tv.Usec)
	return dst[SizeOfTimeVal:]
}

// UnmarshalBytes implements marshal.Marshallable.UnmarshalBytes.
func (tv *TimeVal) UnmarshalBytes(src []byte) []byte {
	tv.Sec = hostarch.ByteOrder.Uint64(src[0:])
	tv.Usec = hostarch.ByteOrder.Uint64(src[8:])
	return src[SizeOfTimeVal:]
}
