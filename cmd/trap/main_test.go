/*
DESCRIPTION
  main_test.go provides testing for the settings file, detector and output
  handling of the trap client.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/output"
	"github.com/ausocean/camtrap/trap"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/utils/logging"
)

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		json    string
		want    map[string]string
		wantErr bool
	}{
		{
			json: `{"Pipeline": "by_frame", "FrameRate": 20, "SoTVThreshold": 5000.5, "HorizontalFlip": true}`,
			want: map[string]string{"Pipeline": "by_frame", "FrameRate": "20", "SoTVThreshold": "5000.5", "HorizontalFlip": "true"},
		},
		{json: `{}`, want: map[string]string{}},
		{json: `{"Width": [1, 2]}`, wantErr: true},
		{json: `not json`, wantErr: true},
	}

	for i, test := range tests {
		path := filepath.Join(t.TempDir(), "settings.json")
		err := os.WriteFile(path, []byte(test.json), 0644)
		if err != nil {
			t.Fatal(err)
		}
		got, err := loadSettings(path)
		if (err != nil) != test.wantErr {
			t.Errorf("did not get expected error for test %d: %v", i, err)
			continue
		}
		if !cmp.Equal(got, test.want) && !test.wantErr {
			t.Errorf("unexpected settings for test %d\n%s", i, cmp.Diff(test.want, got))
		}
	}
}

func TestWatchSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	err := os.WriteFile(path, []byte(`{"FrameRate": 10}`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan map[string]string, 4)
	done := make(chan error)
	go func() {
		apply := func(v map[string]string) {
			select {
			case got <- v:
			default:
			}
		}
		done <- watchSettings(ctx, path, apply, (*logging.TestLogger)(t))
	}()

	// Writes to other files are ignored; allow the watcher to start first.
	time.Sleep(100 * time.Millisecond)
	os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644)
	err = os.WriteFile(path, []byte(`{"FrameRate": 25}`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case v := <-got:
		if v["FrameRate"] != "25" {
			t.Errorf("unexpected settings: %v", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("settings change not seen")
	}

	cancel()
	err = <-done
	if !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error from watcher: %v", err)
	}
}

type fakeModel struct {
	name   string
	closed bool
}

func (m *fakeModel) RunRaw(img []byte, f classify.Format) (float64, float64, error) {
	if m.name == "a" {
		return 1, 0, nil
	}
	return 0, 0, nil
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

func TestDetector(t *testing.T) {
	d := newDetector((*logging.TestLogger)(t))
	var opened []*fakeModel
	d.open = func(kind uint8, weights, cfg string, l logging.Logger) (model, error) {
		if weights == "bad" {
			return nil, errors.New("bad weights")
		}
		m := &fakeModel{name: weights}
		opened = append(opened, m)
		return m, nil
	}

	_, _, err := d.RunRaw(nil, classify.RGB)
	if !errors.Is(err, classify.ErrNoModel) {
		t.Errorf("expected no model error, got: %v", err)
	}

	loads := []struct {
		kind    uint8
		weights string
	}{
		{config.DetectorYOLO, "a"},
		{config.DetectorYOLO, "a"},
		{config.DetectorYOLO, "b"},
		{config.DetectorYOLO, "bad"},
		{config.DetectorSSDHuman, "b"},
	}
	for _, l := range loads {
		d.load(l.kind, l.weights, "cfg")
	}
	if len(opened) != 3 {
		t.Fatalf("unexpected number of loads: %d", len(opened))
	}
	if !opened[0].closed || !opened[1].closed || opened[2].closed {
		t.Error("expected only replaced models to be closed")
	}

	// A failed load keeps the current model.
	a, _, err := d.RunRaw(nil, classify.RGB)
	if err != nil || a != 0 {
		t.Errorf("unexpected result from current model: %v, %v", a, err)
	}
}

func TestWrite(t *testing.T) {
	a := &app{log: (*logging.TestLogger)(t)}
	w, err := output.New(t.TempDir(), a.log)
	if err != nil {
		t.Fatal(err)
	}

	items := []trap.Item{
		{Frame: &device.Frame{Image: []byte("ab"), Timestamp: 1700000000}},
		{Frame: &device.Frame{Image: []byte("cd"), Timestamp: 1700000001}},
		{},
		{},
	}
	for _, it := range items {
		err = a.write(w, it)
		if err != nil {
			t.Errorf("did not expect error: %v", err)
		}
	}
	if n := a.kept.Load(); n != 2 {
		t.Errorf("unexpected kept count: %d", n)
	}
}
