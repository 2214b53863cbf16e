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

package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLogrusEmitter(t *testing.T) {
	ll, hook := test.NewNullLogger()
	l := &BasicLogger{Level: Debug, Emitter: NewLogrusEmitter(ll)}

	l.Debugf("translate %#x", 0x2000)
	l.Warningf("heap exhausted")

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for i, want := range []struct {
		level logrus.Level
		msg   string
	}{
		{logrus.DebugLevel, "translate 0x2000"},
		{logrus.WarnLevel, "heap exhausted"},
	} {
		if entries[i].Level != want.level || entries[i].Message != want.msg {
			t.Errorf("entry %d = (%v, %q), want (%v, %q)", i, entries[i].Level, entries[i].Message, want.level, want.msg)
		}
		if _, ok := entries[i].Data["caller"]; !ok {
			t.Errorf("entry %d has no caller field", i)
		}
	}
}
