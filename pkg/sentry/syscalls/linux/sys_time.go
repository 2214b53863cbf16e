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
	"teachos.dev/uspace/pkg/sentry/arch"
	"teachos.dev/uspace/pkg/sentry/kernel"
	"teachos.dev/uspace/pkg/usermem"
)

// GetTime implements get_time(ts, tz). It writes the time since boot to ts
// as a TimeVal. tz is ignored.
func GetTime(t *kernel.Task, sysno uintptr, args arch.SyscallArguments) (uintptr, error) {
	addr := args[0].Pointer()

	tv := t.Kernel().Clock().Now().TimeVal()
	if _, err := usermem.CopyObjectOut(t, t.MemoryManager(), addr, &tv, usermem.IOOpts{}); err != nil {
		return 0, err
	}
	return 0, nil
}
