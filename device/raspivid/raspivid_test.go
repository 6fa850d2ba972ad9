/*
DESCRIPTION
  raspivid_test.go tests the raspivid Camera.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package raspivid

import (
	"bytes"
	"os/exec"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/utils/logging"
)

func TestIsRunning(t *testing.T) {
	const dur = 250 * time.Millisecond

	if _, err := exec.LookPath("raspivid"); err != nil {
		t.Skip("raspivid not available")
	}

	l := logging.New(logging.Debug, &bytes.Buffer{}, true) // Discard logs.
	d := New(l, device.Sinks{})

	err := d.Set(config.Config{
		Logger:           l,
		Width:            640,
		Height:           480,
		FrameRate:        20,
		Bitrate:          2000,
		Brightness:       50,
		Exposure:         "auto",
		AutoWhiteBalance: "auto",
		AWBGains:         "1.0,1.0",
		ISO:              100,
		RawWidth:         416,
		RawHeight:        416,
		RawFormat:        classify.RGB,
	})
	if err != nil {
		t.Skipf("could not set device: %v", err)
	}

	err = d.Start()
	if err != nil {
		t.Fatalf("could not start device %v", err)
	}

	time.Sleep(dur)

	if !d.IsRunning() {
		t.Error("device isn't running, when it should be")
	}

	err = d.Stop()
	if err != nil {
		t.Error(err.Error())
	}

	if d.IsRunning() {
		t.Error("device is running, when it should not be")
	}
}

func TestSetDefaults(t *testing.T) {
	d := New((*logging.TestLogger)(t), device.Sinks{})
	err := d.Set(config.Config{})
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	errs, ok := err.(device.MultiError)
	if !ok {
		t.Fatalf("expected MultiError, got: %T", err)
	}
	if len(errs) == 0 {
		t.Error("expected at least one error")
	}
	if d.cfg.Width != defaultRaspividWidth || d.cfg.Height != defaultRaspividHeight {
		t.Errorf("unexpected resolution: %dx%d", d.cfg.Width, d.cfg.Height)
	}
	if d.cfg.RawWidth != d.cfg.Width || d.cfg.RawFormat != classify.RGB {
		t.Errorf("unexpected raw settings: width %d, format %v", d.cfg.RawWidth, d.cfg.RawFormat)
	}
}

func TestGoodAWBGains(t *testing.T) {
	tests := []struct {
		gains  string
		expect bool
	}{
		{gains: "-0.6,1.7", expect: false},
		{gains: "0.6,-1.6", expect: false},
		{gains: "1.3,0.3", expect: true},
		{gains: "0.8,", expect: false},
		{gains: "0.3", expect: false},
		{gains: "0,0", expect: true},
		{gains: ",1.4", expect: false},
	}

	for i, test := range tests {
		got := goodAWBGains(test.gains)
		if got != test.expect {
			t.Errorf("did not get get expected result for test: %d\nWant: %v, Got: %v\n", i, test.expect, got)
		}
	}
}

func TestCreateArgs(t *testing.T) {
	tests := []struct {
		cfg  config.Config
		want []string
	}{
		{
			cfg: config.Config{
				Height:           1080,
				Width:            1440,
				Bitrate:          1000,
				FrameRate:        25,
				Rotation:         45,
				Brightness:       50,
				Saturation:       20,
				Contrast:         30,
				Sharpness:        -30,
				AutoWhiteBalance: "auto",
				Exposure:         "auto",
				EV:               3,
				AWBGains:         "0.9,1.2",
				ISO:              300,
				ContextLength:    2,
			},
			want: []string{
				"--output", "-",
				"--nopreview",
				"--timeout", "0",
				"--width", "1440",
				"--height", "1080",
				"--bitrate", "1000000", // Convert from kbps to bps.
				"--framerate", "25",
				"--rotation", "45",
				"--brightness", "50",
				"--saturation", "20",
				"--sharpness", "-30",
				"--contrast", "30",
				"--awb", "auto",
				"--exposure", "auto",
				"--ISO", "300",
				"--codec", "H264",
				"--inline",
				"--intra", "25",
				"--vectors", "/tmp/v",
				"--raw", "/tmp/r",
				"--raw-format", "rgb",
			},
		},
		{
			cfg: config.Config{
				Height:           1080,
				Width:            1440,
				Bitrate:          1000,
				FrameRate:        20,
				Rotation:         45,
				Brightness:       50,
				Saturation:       20,
				Contrast:         30,
				Sharpness:        -30,
				AutoWhiteBalance: "off",
				Exposure:         "off",
				EV:               3,
				AWBGains:         "0.9,1.2",
				ISO:              100,
				VerticalFlip:     true,
			},
			want: []string{
				"--output", "-",
				"--nopreview",
				"--timeout", "0",
				"--width", "1440",
				"--height", "1080",
				"--bitrate", "1000000", // Convert from kbps to bps.
				"--framerate", "20",
				"--rotation", "45",
				"--brightness", "50",
				"--saturation", "20",
				"--sharpness", "-30",
				"--contrast", "30",
				"--awb", "off",
				"--exposure", "off",
				"--ev", "3",
				"--awbgains", "0.9,1.2",
				"--vflip",
				"--codec", "H264",
				"--inline",
				"--intra", "1",
				"--vectors", "/tmp/v",
				"--raw", "/tmp/r",
				"--raw-format", "rgb",
			},
		},
	}

	for i, test := range tests {
		got := (&Raspivid{cfg: test.cfg}).createArgs("/tmp/v", "/tmp/r")
		if !cmp.Equal(got, test.want) {
			t.Errorf("did not get expected args list for test: %d\n%s", i, cmp.Diff(test.want, got))
		}
	}
}

func TestScale(t *testing.T) {
	// A uniform 4x2 frame scaled to 2x2 stays uniform.
	src := bytes.Repeat([]byte{10, 20, 30}, 8)

	s := newScaler(4, 2, 2, 2, classify.RGB)
	if got, want := s.srcSize(), 24; got != want {
		t.Fatalf("unexpected source size, got: %d, want: %d", got, want)
	}
	got := s.scale(src)
	want := bytes.Repeat([]byte{10, 20, 30}, 4)
	if !bytes.Equal(got, want) {
		t.Errorf("unexpected RGB output\ngot: %v\nwant: %v", got, want)
	}

	s = newScaler(4, 2, 4, 2, classify.RGBA)
	got = s.scale(src)
	want = bytes.Repeat([]byte{10, 20, 30, 0xff}, 8)
	if !bytes.Equal(got, want) {
		t.Errorf("unexpected RGBA output\ngot: %v\nwant: %v", got, want)
	}

	s = newScaler(4, 2, 4, 2, classify.RGB)
	if got := s.scale(src); &got[0] != &src[0] {
		t.Error("expected same size RGB frame to be passed through")
	}
}

func TestStopTwice(t *testing.T) {
	l := (*logging.TestLogger)(t)
	d := New(l, device.Sinks{})

	// Running state without a raspivid process, so the kill fails.
	d.done = make(chan struct{})
	d.sync = device.NewSynchroniser(classify.RGB, frameBacklog, l)
	d.isRunning = true

	err := d.Stop()
	if err == nil {
		t.Error("expected error stopping device with no process")
	}
	if d.IsRunning() {
		t.Error("device is running after failed stop")
	}
	err = d.Stop()
	if err != nil {
		t.Errorf("did not expect error from second stop: %v", err)
	}
	_, err = d.Get(time.Millisecond)
	if err != device.ErrStopped {
		t.Errorf("unexpected error after stop, got: %v, want: %v", err, device.ErrStopped)
	}
}
