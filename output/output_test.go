/*
DESCRIPTION
  output_test.go provides testing for the output Writer.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/camtrap/buffer"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/event"
	"github.com/ausocean/camtrap/sensor"
	"github.com/ausocean/utils/logging"
)

func newTestWriter(t *testing.T, free uint64) *Writer {
	w, err := New(filepath.Join(t.TempDir(), "out"), (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("could not create writer: %v", err)
	}
	w.free = func() (uint64, error) { return free, nil }
	return w
}

func readMeta(t *testing.T, dir string) map[string]interface{} {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err != nil {
		t.Fatalf("could not read metadata: %v", err)
	}
	var m map[string]interface{}
	err = json.Unmarshal(b, &m)
	if err != nil {
		t.Fatalf("could not unmarshal metadata: %v", err)
	}
	return m
}

func TestWriteEvent(t *testing.T) {
	w := newTestWriter(t, 1<<40)
	src := filepath.Join(t.TempDir(), "event_3")
	err := os.Mkdir(src, 0755)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(src, buffer.RawFile), []byte("abcd"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	d := &event.Data{Dir: src, RawFrames: [][]byte{[]byte("ab"), []byte("cd")}, StartTimestamp: 1700000000}
	s := &sensor.Log{SystemTime: 1700000001, Readings: map[string]sensor.Reading{"TEMPERATURE": {Value: 20.0, Units: "C"}}}
	dst, err := w.WriteEvent(d, s)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if want := filepath.Join(w.dir, "2023-11-14_22-13-20"); dst != want {
		t.Errorf("unexpected output path, got: %s, want: %s", dst, want)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("expected event to be moved")
	}
	b, err := os.ReadFile(filepath.Join(dst, buffer.RawFile))
	if err != nil || string(b) != "abcd" {
		t.Errorf("unexpected raw clip: %q, %v", b, err)
	}

	m := readMeta(t, dst)
	want := map[string]interface{}{
		"start_time": 1700000000.0,
		"raw_frames": 2.0,
		"sensor": map[string]interface{}{
			"system_time": map[string]interface{}{"value": 1700000001.0, "units": "s"},
			"TEMPERATURE": map[string]interface{}{"value": 20.0, "units": "C"},
		},
	}
	if !cmp.Equal(m, want) {
		t.Errorf("unexpected metadata\n%s", cmp.Diff(want, m))
	}

	// A second event at the same time gets a new name.
	src2 := filepath.Join(t.TempDir(), "event_4")
	os.Mkdir(src2, 0755)
	dst2, err := w.WriteEvent(&event.Data{Dir: src2, StartTimestamp: 1700000000}, nil)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if dst2 != dst+"_1" {
		t.Errorf("unexpected second output path: %s", dst2)
	}
}

func TestWriteFrames(t *testing.T) {
	w := newTestWriter(t, 1<<40)
	for i, img := range []string{"ab", "cd", "ef"} {
		err := w.WriteFrame(&device.Frame{Image: []byte(img), Timestamp: 1700000000 + float64(i)}, nil)
		if err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
	}
	err := w.EndSequence()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	dir := filepath.Join(w.dir, "2023-11-14_22-13-20")
	b, err := os.ReadFile(filepath.Join(dir, buffer.RawFile))
	if err != nil || string(b) != "abcdef" {
		t.Errorf("unexpected clip: %q, %v", b, err)
	}
	m := readMeta(t, dir)
	if m["raw_frames"] != 3.0 {
		t.Errorf("unexpected frame count: %v", m["raw_frames"])
	}
	if n := len(m["timestamps"].([]interface{})); n != 3 {
		t.Errorf("unexpected number of timestamps: %d", n)
	}

	// Ending again does nothing.
	err = w.EndSequence()
	if err != nil {
		t.Errorf("did not expect error: %v", err)
	}
}

func TestDiskFull(t *testing.T) {
	w := newTestWriter(t, spaceBuffer-1)
	err := w.WriteFrame(&device.Frame{Image: []byte("ab")}, nil)
	if err == nil {
		t.Error("expected error when disk is full")
	}
	entries, _ := os.ReadDir(w.dir)
	if len(entries) != 0 {
		t.Errorf("did not expect outputs, got: %d", len(entries))
	}
}
