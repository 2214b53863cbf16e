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

// Package context defines an internal context type.
//
// The given Context conforms to the standard Go context, but mandates
// additional methods that are specific to the kernel. Operations that act on
// behalf of a task take a Context so that they can log against that task
// without consulting any global "current task" state.
package context

import (
	"context"
	"time"

	"teachos.dev/uspace/pkg/log"
)

// A Context represents a thread of execution. It carries state associated
// with the task across API boundaries.
type Context interface {
	context.Context
	log.Logger
}

// logContext combines a standard context with a logger.
type logContext struct {
	context.Context
	log.Logger
}

// valueContext attaches a single key/value pair.
type valueContext struct {
	Context
	key, val any
}

// Value implements context.Context.Value.
func (vc *valueContext) Value(key any) any {
	if key == vc.key {
		return vc.val
	}
	return vc.Context.Value(key)
}

// WithValue returns a copy of parent in which the value associated with key
// is val.
func WithValue(parent Context, key, val any) Context {
	return &valueContext{Context: parent, key: key, val: val}
}

// WithLogger returns a copy of parent that logs to l.
func WithLogger(parent Context, l log.Logger) Context {
	return &logContext{Context: parent, Logger: l}
}

// WithDeadline returns a copy of parent whose standard context expires at
// d, along with its cancel function.
func WithDeadline(parent Context, d time.Time) (Context, context.CancelFunc) {
	c, cancel := context.WithDeadline(parent, d)
	return &logContext{Context: c, Logger: parent}, cancel
}

// bgContext is the context returned by context.Background.
var bgContext = &logContext{Context: context.Background(), Logger: logger{}}

// logger forwards to the global logger as it is at the time of each call, so
// that SetTarget after package initialization is honored.
type logger struct{}

func (logger) Debugf(format string, v ...any) { log.Log().DebugfAtDepth(1, format, v...) }

func (logger) Infof(format string, v ...any) { log.Log().InfofAtDepth(1, format, v...) }

func (logger) Warningf(format string, v ...any) { log.Log().WarningfAtDepth(1, format, v...) }

func (logger) IsLogging(level log.Level) bool { return log.IsLogging(level) }

// Background returns an empty context using the default logger.
//
// Generally, one should use the Task as their context when available, or
// avoid having to use a context in places where a Task is unavailable.
//
// Using a Background context for tests is fine, as long as no values are
// needed from the context in the tested code paths.
func Background() Context {
	return bgContext
}
