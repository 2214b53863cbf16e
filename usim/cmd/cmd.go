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

// Package cmd holds implementations of the usim commands.
package cmd

import (
	"fmt"
	"io"
	"os"

	"teachos.dev/uspace/pkg/log"
)

// ErrorLogger is where error messages should be written to. These messages
// are consumed by the caller, so only errors go here.
var ErrorLogger io.Writer

// Fatalf logs a fatal error, reports it to the user and exits with status
// 128.
func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warningf("FATAL ERROR: %s", msg)
	writeError(msg)
	os.Exit(128)
}

// writeError writes msg to stderr and to ErrorLogger, if set.
func writeError(msg string) {
	fmt.Fprintln(os.Stderr, "usim: "+msg)
	if ErrorLogger != nil {
		fmt.Fprintln(ErrorLogger, msg)
	}
}
