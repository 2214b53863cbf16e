// Copyright 2021 The gVisor Authors.
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

// Package mmerr contains the errors reported by the memory subsystem,
// exported as *errors.Error pointers so that they compare by identity and
// still carry an errno for the syscall boundary.
package mmerr

import (
	goerrors "errors"

	"golang.org/x/sys/unix"
	"teachos.dev/uspace/pkg/errors"
)

// Input validation failures. These are expected and recoverable.
var (
	// ErrInvalidAlignment is returned when an address that must be page
	// aligned is not.
	ErrInvalidAlignment = errors.New(unix.EINVAL, "address not page-aligned")

	// ErrInvalidPermissions is returned for an empty permission set or for
	// permission bits outside read/write/execute.
	ErrInvalidPermissions = errors.New(unix.EINVAL, "invalid permission bits")

	// ErrInvalidLength is returned for zero-length requests.
	ErrInvalidLength = errors.New(unix.EINVAL, "invalid length")

	// ErrOutOfRange is returned when a range wraps around or extends past
	// the top of the user address space.
	ErrOutOfRange = errors.New(unix.EINVAL, "range outside the user address space")

	// ErrOverlap is returned when a new mapping would intersect an existing
	// one.
	ErrOverlap = errors.New(unix.EEXIST, "range overlaps an existing mapping")

	// ErrNotMapped is returned when a range is not fully backed by existing
	// mappings with sufficient permissions.
	ErrNotMapped = errors.New(unix.EFAULT, "range not mapped")

	// ErrBrkUnderflow is returned when the program break would move below
	// the heap base.
	ErrBrkUnderflow = errors.New(unix.EINVAL, "program break below heap base")
)

// Conditions that are unreachable in a correct kernel under normal load.
var (
	// ErrOutOfMemory is returned when no physical frame remains.
	ErrOutOfMemory = errors.New(unix.ENOMEM, "out of physical frames")

	// ErrAlreadyMapped is returned when a page table entry is installed
	// over a valid one.
	ErrAlreadyMapped = errors.New(unix.EEXIST, "page already mapped")
)

// ToUnix converts an error to a unix.Errno. Errors that do not wrap an
// *errors.Error convert to EFAULT.
func ToUnix(err error) unix.Errno {
	if err == nil {
		return 0
	}
	var e *errors.Error
	if goerrors.As(err, &e) {
		return e.Errno()
	}
	return unix.EFAULT
}

// Equals compares an *errors.Error to a given error, looking through
// wrapping.
func Equals(e *errors.Error, err error) bool {
	if err == nil {
		return e == nil
	}
	return goerrors.Is(err, e)
}
