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
	"golang.org/x/sys/unix"
	"teachos.dev/uspace/pkg/errors"
)

var (
	// errBadFD is returned by write for descriptors other than stdout.
	errBadFD = errors.New(unix.EBADF, "bad file descriptor")

	// errInvalidProt is returned by mmap for unrecognized or empty
	// protection bits.
	errInvalidProt = errors.New(unix.EINVAL, "invalid protection bits")

	// errTooLong is returned by write for buffers over maxWriteLen.
	errTooLong = errors.New(unix.EINVAL, "buffer too long")
)
