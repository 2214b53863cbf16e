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

package usermem

import (
	"bytes"
	"errors"
	"testing"

	"teachos.dev/uspace/pkg/abi/linux"
	"teachos.dev/uspace/pkg/context"
	"teachos.dev/uspace/pkg/errors/mmerr"
)

// newContext returns a context.Context that we can use in these tests (we
// can't use contexttest because it depends on usermem).
func newContext() context.Context {
	return context.Background()
}

func newBytesIOString(s string) *BytesIO {
	return &BytesIO{[]byte(s)}
}

func TestBytesIOCopyOutSuccess(t *testing.T) {
	b := newBytesIOString("ABCDE")
	n, err := b.CopyOut(newContext(), 1, []byte("foo"), IOOpts{})
	if wantN := 3; n != wantN || err != nil {
		t.Errorf("CopyOut: got (%v, %v), wanted (%v, nil)", n, err, wantN)
	}
	if got, want := b.Bytes, []byte("AfooE"); !bytes.Equal(got, want) {
		t.Errorf("Bytes: got %q, wanted %q", got, want)
	}
}

func TestBytesIOCopyOutFailure(t *testing.T) {
	b := newBytesIOString("ABC")
	n, err := b.CopyOut(newContext(), 1, []byte("foo"), IOOpts{})
	if wantN := 2; n != wantN || !errors.Is(err, mmerr.ErrNotMapped) {
		t.Errorf("CopyOut: got (%v, %v), wanted (%v, %v)", n, err, wantN, mmerr.ErrNotMapped)
	}
	if got, want := b.Bytes, []byte("Afo"); !bytes.Equal(got, want) {
		t.Errorf("Bytes: got %q, wanted %q", got, want)
	}
}

func TestBytesIOCopyInSuccess(t *testing.T) {
	b := newBytesIOString("AfooE")
	var dst [3]byte
	n, err := b.CopyIn(newContext(), 1, dst[:], IOOpts{})
	if wantN := 3; n != wantN || err != nil {
		t.Errorf("CopyIn: got (%v, %v), wanted (%v, nil)", n, err, wantN)
	}
	if got, want := dst[:], []byte("foo"); !bytes.Equal(got, want) {
		t.Errorf("dst: got %q, wanted %q", got, want)
	}
}

func TestBytesIOCopyInFailure(t *testing.T) {
	b := newBytesIOString("Afo")
	var dst [3]byte
	n, err := b.CopyIn(newContext(), 1, dst[:], IOOpts{})
	if wantN := 2; n != wantN || !errors.Is(err, mmerr.ErrNotMapped) {
		t.Errorf("CopyIn: got (%v, %v), wanted (%v, %v)", n, err, wantN, mmerr.ErrNotMapped)
	}
	if got, want := dst[:], []byte("fo\x00"); !bytes.Equal(got, want) {
		t.Errorf("dst: got %q, wanted %q", got, want)
	}
}

func TestBytesIOZeroOutSuccess(t *testing.T) {
	b := newBytesIOString("ABCD")
	n, err := b.ZeroOut(newContext(), 1, 2, IOOpts{})
	if wantN := int64(2); n != wantN || err != nil {
		t.Errorf("ZeroOut: got (%v, %v), wanted (%v, nil)", n, err, wantN)
	}
	if got, want := b.Bytes, []byte("A\x00\x00D"); !bytes.Equal(got, want) {
		t.Errorf("Bytes: got %q, wanted %q", got, want)
	}
}

func TestBytesIOZeroOutFailure(t *testing.T) {
	b := newBytesIOString("ABC")
	n, err := b.ZeroOut(newContext(), 1, 3, IOOpts{})
	if wantN := int64(2); n != wantN || !errors.Is(err, mmerr.ErrNotMapped) {
		t.Errorf("ZeroOut: got (%v, %v), wanted (%v, %v)", n, err, wantN, mmerr.ErrNotMapped)
	}
	if got, want := b.Bytes, []byte("A\x00\x00"); !bytes.Equal(got, want) {
		t.Errorf("Bytes: got %q, wanted %q", got, want)
	}
}

func TestCopyObjectRoundTrip(t *testing.T) {
	b := &BytesIO{make([]byte, 64)}
	in := linux.TimeVal{Sec: 12, Usec: 345}
	if n, err := CopyObjectOut(newContext(), b, 5, &in, IOOpts{}); n != linux.SizeOfTimeVal || err != nil {
		t.Fatalf("CopyObjectOut: got (%v, %v), wanted (%v, nil)", n, err, linux.SizeOfTimeVal)
	}
	var out linux.TimeVal
	if n, err := CopyObjectIn(newContext(), b, 5, &out, IOOpts{}); n != linux.SizeOfTimeVal || err != nil {
		t.Fatalf("CopyObjectIn: got (%v, %v), wanted (%v, nil)", n, err, linux.SizeOfTimeVal)
	}
	if out != in {
		t.Errorf("CopyObjectIn: got %+v, wanted %+v", out, in)
	}
}

func TestCopyObjectInLeavesDstOnFailure(t *testing.T) {
	b := &BytesIO{make([]byte, 8)}
	out := linux.TimeVal{Sec: 1, Usec: 2}
	if _, err := CopyObjectIn(newContext(), b, 0, &out, IOOpts{}); err == nil {
		t.Fatalf("CopyObjectIn past the end succeeded")
	}
	if out != (linux.TimeVal{Sec: 1, Usec: 2}) {
		t.Errorf("dst modified on failure: %+v", out)
	}
}

func TestCopyStringIn(t *testing.T) {
	b := newBytesIOString("xhello\x00world")
	for _, test := range []struct {
		maxlen  int
		want    string
		wantErr bool
	}{
		{10, "hello", false},
		{3, "hel", true},
	} {
		got, err := CopyStringIn(newContext(), b, 1, test.maxlen, IOOpts{})
		if got != test.want || (err != nil) != test.wantErr {
			t.Errorf("CopyStringIn(maxlen=%d) = (%q, %v), want (%q, err=%t)", test.maxlen, got, err, test.want, test.wantErr)
		}
	}
}
