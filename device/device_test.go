/*
DESCRIPTION
  device_test.go provides testing for the Synchroniser and decimating
  writer.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package device

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/utils/logging"
)

func TestSynchroniser(t *testing.T) {
	s := NewSynchroniser(classify.RGB, 2, (*logging.TestLogger)(t))
	now := time.Unix(1700000000, 0)
	s.now = func() time.Time { return now }

	s.Images().Write([]byte("i0"))
	s.Images().Write([]byte("i1")) // Drops i0.
	s.Motion().Write([]byte("m1"))
	s.Motion().Write([]byte("m2"))
	s.Images().Write([]byte("i2"))

	want := []*Frame{
		{Image: []byte("i1"), Format: classify.RGB, Motion: []byte("m1"), Timestamp: 1700000000},
		{Image: []byte("i2"), Format: classify.RGB, Motion: []byte("m2"), Timestamp: 1700000000},
	}
	for i, w := range want {
		got, err := s.Get(time.Second)
		if err != nil {
			t.Fatalf("did not expect error for frame %d: %v", i, err)
		}
		if !cmp.Equal(got, w) {
			t.Errorf("unexpected frame %d\n%s", i, cmp.Diff(w, got))
		}
	}
	if got := s.Dropped(); got != 1 {
		t.Errorf("unexpected dropped count, got: %d, want: 1", got)
	}

	_, err := s.Get(time.Millisecond)
	if err != ErrTimeout {
		t.Errorf("unexpected error, got: %v, want: %v", err, ErrTimeout)
	}
	s.Close()
	_, err = s.Get(time.Second)
	if err != ErrStopped {
		t.Errorf("unexpected error after close, got: %v, want: %v", err, ErrStopped)
	}
}

func TestSynchroniserBacklog(t *testing.T) {
	s := NewSynchroniser(classify.RGB, 1, (*logging.TestLogger)(t))
	for _, b := range []string{"a", "b", "c"} {
		s.Images().Write([]byte(b))
		s.Motion().Write([]byte(b))
	}
	f, err := s.Get(time.Second)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if string(f.Image) != "c" {
		t.Errorf("expected newest frame to be kept, got: %q", f.Image)
	}
	if got := s.Dropped(); got != 2 {
		t.Errorf("unexpected dropped count, got: %d, want: 2", got)
	}
}

func TestDecimate(t *testing.T) {
	var buf bytes.Buffer
	w := Decimate(&buf, 3)
	for _, b := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		n, err := w.Write([]byte(b))
		if n != 1 || err != nil {
			t.Fatalf("unexpected write result: (%d, %v)", n, err)
		}
	}
	if got := buf.String(); got != "adg" {
		t.Errorf("unexpected output, got: %q, want: %q", got, "adg")
	}
	if Decimate(&buf, 1) != &buf {
		t.Error("expected divisor of one to return the writer")
	}
}
