/*
DESCRIPTION
  buffer_test.go provides testing for the rings, pairs and sets of the
  buffer package.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package buffer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/utils/logging"
)

func TestRingWrap(t *testing.T) {
	r := NewRing(10)
	for _, s := range []string{"aaaa", "bbbb", "cccc"} {
		r.Write([]byte(s), false)
	}

	want := []Frame{{Offset: 4, Len: 4}, {Offset: 8, Len: 4}}
	if !cmp.Equal(r.Frames(), want) {
		t.Errorf("unexpected frames\n%s", cmp.Diff(want, r.Frames()))
	}

	var buf bytes.Buffer
	_, err := r.WriteTo(&buf, 0)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if got := buf.String(); got != "bbbbcccc" {
		t.Errorf("unexpected contents, got: %q, want: %q", got, "bbbbcccc")
	}

	buf.Reset()
	r.WriteTo(&buf, 1)
	if got := buf.String(); got != "cccc" {
		t.Errorf("unexpected contents from frame 1, got: %q", got)
	}

	r.Truncate()
	if r.Len() != 0 || len(r.Frames()) != 0 {
		t.Errorf("ring not empty after truncate, len: %d, frames: %d", r.Len(), len(r.Frames()))
	}
}

func TestRingOversize(t *testing.T) {
	r := NewRing(10)
	r.Write(bytes.Repeat([]byte{'x'}, 15), true)
	if len(r.Frames()) != 0 {
		t.Errorf("expected oversize frame to be evicted, got: %+v", r.Frames())
	}
	if r.Len() != r.Cap() {
		t.Errorf("unexpected length, got: %d, want: %d", r.Len(), r.Cap())
	}
	r.Write([]byte("yy"), false)
	var buf bytes.Buffer
	r.WriteTo(&buf, 0)
	if got := buf.String(); got != "yy" {
		t.Errorf("unexpected contents, got: %q", got)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read %s: %v", path, err)
	}
	return string(b)
}

func TestPairSwitch(t *testing.T) {
	p := NewPair("stream", 64, nil, nil, (*logging.TestLogger)(t))
	path := filepath.Join(t.TempDir(), p.Name())

	p.Write([]byte("abc"))
	if got := p.BytesWritten(); got != 3 {
		t.Errorf("unexpected bytes written, got: %d, want: 3", got)
	}
	p.Switch()
	if got := p.BytesWritten(); got != 0 {
		t.Errorf("byte count not reset by switch, got: %d", got)
	}

	// Writes after the switch must not reach the inactive ring.
	p.Write([]byte("de"))
	if _, err := p.WriteInactive(path, false); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if got := readFile(t, path); got != "abc" {
		t.Errorf("unexpected file contents, got: %q, want: %q", got, "abc")
	}

	p.Switch()
	p.WriteInactive(path, false)
	if got := readFile(t, path); got != "abcde" {
		t.Errorf("unexpected file contents after append, got: %q, want: %q", got, "abcde")
	}
}

func keyFrames(n int, keys ...int) []Frame {
	f := make([]Frame, n)
	for _, k := range keys {
		f[k].Key = true
	}
	return f
}

func TestSeek(t *testing.T) {
	tests := []struct {
		name   string
		seek   SeekFunc
		frames []Frame
		want   int
		wantOK bool
	}{
		{name: "motion", seek: MotionSeek(0.25, 20), frames: make([]Frame, 10), want: 5, wantOK: true},
		{name: "motion short", seek: MotionSeek(2, 20), frames: make([]Frame, 10), want: 0, wantOK: true},
		{name: "raw", seek: RawSeek(1, 4), frames: make([]Frame, 10), want: 6, wantOK: true},
		{name: "h264 closest", seek: H264Seek(0.2, 20), frames: keyFrames(10, 0, 5, 9), want: 5, wantOK: true},
		{name: "h264 tie", seek: H264Seek(0.25, 20), frames: keyFrames(10, 3, 7), want: 3, wantOK: true},
		{name: "h264 none", seek: H264Seek(0.2, 20), frames: keyFrames(10), want: -1, wantOK: false},
	}
	for _, test := range tests {
		got, ok := test.seek(test.frames)
		if got != test.want || ok != test.wantOK {
			t.Errorf("unexpected seek for %s, got: (%d, %v), want: (%d, %v)", test.name, got, ok, test.want, test.wantOK)
		}
	}
}

func TestWriteInactiveNoSync(t *testing.T) {
	p := NewPair(H264File, 64, func(b []byte) bool { return b[0] == 'k' }, H264Seek(1, 20), (*logging.TestLogger)(t))
	path := filepath.Join(t.TempDir(), p.Name())

	p.Write([]byte("pp"))
	p.Write([]byte("pp"))
	p.Switch()
	_, err := p.WriteInactive(path, true)
	if !errors.Is(err, ErrNoSyncPoint) {
		t.Fatalf("unexpected error, got: %v, want: %v", err, ErrNoSyncPoint)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file to be written, stat error: %v", err)
	}

	p.Write([]byte("pp"))
	p.Write([]byte("kk"))
	p.Write([]byte("pp"))
	p.Switch()
	if _, err := p.WriteInactive(path, true); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if got := readFile(t, path); got != "kkpp" {
		t.Errorf("unexpected file contents, got: %q, want: %q", got, "kkpp")
	}
}

func TestSetFlush(t *testing.T) {
	l := (*logging.TestLogger)(t)
	s := NewSet(
		NewPair(H264File, 64, nil, nil, l),
		NewPair(RawFile, 64, nil, nil, l),
		NewPair(MotionFile, 64, nil, MotionSeek(1, 2), l),
		l,
	)
	dir := t.TempDir()

	s.H264.Write([]byte("v1"))
	s.Raw.Write([]byte("r1"))
	for _, m := range []string{"m1", "m2", "m3"} {
		s.Motion.Write([]byte(m))
	}
	if got := s.BytesWritten(); got != 2 {
		t.Errorf("unexpected bytes written, got: %d, want: 2", got)
	}
	if err := s.Flush(dir, true); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if got := s.BytesWritten(); got != 0 {
		t.Errorf("byte count not reset by flush, got: %d", got)
	}

	s.H264.Write([]byte("v2"))
	s.Motion.Write([]byte("m4"))
	if err := s.Flush(dir, false); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	want := map[string]string{
		H264File:   "v1v2",
		RawFile:    "r1",
		MotionFile: "m2m3m4",
	}
	for name, w := range want {
		if got := readFile(t, filepath.Join(dir, name)); got != w {
			t.Errorf("unexpected contents of %s, got: %q, want: %q", name, got, w)
		}
	}
}
