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

// Package usermem governs access to user memory.
package usermem

import (
	"fmt"

	"teachos.dev/uspace/pkg/context"
	"teachos.dev/uspace/pkg/hostarch"
	"teachos.dev/uspace/pkg/marshal"
)

// IO provides access to the contents of a virtual memory space.
type IO interface {
	// CopyOut copies len(src) bytes from src to the memory mapped at addr. It
	// returns the number of bytes copied. If the number of bytes copied is <
	// len(src), it returns a non-nil error explaining why.
	CopyOut(ctx context.Context, addr hostarch.Addr, src []byte, opts IOOpts) (int, error)

	// CopyIn copies len(dst) bytes from the memory mapped at addr to dst.
	// It returns the number of bytes copied. If the number of bytes copied is
	// < len(dst), it returns a non-nil error explaining why.
	CopyIn(ctx context.Context, addr hostarch.Addr, dst []byte, opts IOOpts) (int, error)

	// ZeroOut sets toZero bytes to 0, starting at addr. It returns the number
	// of bytes zeroed. If the number of bytes zeroed is < toZero, it returns
	// a non-nil error explaining why.
	ZeroOut(ctx context.Context, addr hostarch.Addr, toZero int64, opts IOOpts) (int64, error)
}

// IOOpts contains options applicable to all IO methods.
type IOOpts struct {
	// If IgnorePermissions is true, application-defined memory protections
	// set by mmap(2) or mprotect(2) will be ignored. (Memory protections
	// required by the target of the mapping are never ignored.)
	IgnorePermissions bool
}

// CopyObjectOut copies a fixed-size value or array of fixed-size values from
// src to the memory mapped at addr in uio. It returns the number of bytes
// copied.
func CopyObjectOut(ctx context.Context, uio IO, addr hostarch.Addr, src marshal.Marshallable, opts IOOpts) (int, error) {
	return uio.CopyOut(ctx, addr, marshal.Marshal(src), opts)
}

// CopyObjectIn copies a fixed-size value or array of fixed-size values from
// the memory mapped at addr in uio to dst. It returns the number of bytes
// copied. dst is only updated if every byte was copied.
func CopyObjectIn(ctx context.Context, uio IO, addr hostarch.Addr, dst marshal.Marshallable, opts IOOpts) (int, error) {
	buf := make([]byte, dst.SizeBytes())
	n, err := uio.CopyIn(ctx, addr, buf, opts)
	if err != nil {
		return n, err
	}
	dst.UnmarshalBytes(buf)
	return n, nil
}

// CopyStringIn copies a NUL-terminated string of at most maxlen bytes from
// the memory mapped at addr. The terminator is not included in the result.
func CopyStringIn(ctx context.Context, uio IO, addr hostarch.Addr, maxlen int, opts IOOpts) (string, error) {
	var buf [1]byte
	var s []byte
	for len(s) < maxlen {
		if _, err := uio.CopyIn(ctx, addr+hostarch.Addr(len(s)), buf[:], opts); err != nil {
			return string(s), err
		}
		if buf[0] == 0 {
			return string(s), nil
		}
		s = append(s, buf[0])
	}
	return string(s), fmt.Errorf("string at %v longer than %d bytes", addr, maxlen)
}
