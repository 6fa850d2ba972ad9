/*
DESCRIPTION
  trap_test.go provides testing for the frame and event pipelines.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package trap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/camtrap/buffer"
	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/codec/mvec"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/event"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/utils/logging"
)

func TestSpiral(t *testing.T) {
	tests := []struct {
		n        int
		fraction float64
		want     []int
	}{
		{n: 9, fraction: 1, want: []int{4, 3, 5, 2, 6, 1, 7, 0, 8}},
		{n: 9, fraction: 0, want: []int{4}},
		{n: 9, fraction: -1, want: []int{4}},
		{n: 9, fraction: 0.5, want: []int{3, 5, 0, 8}},
		{n: 4, fraction: 1, want: []int{2, 1, 3, 0}},
		{n: 10, fraction: 0.1, want: []int{0}},
		{n: 3, fraction: 0.1, want: nil},
		{n: 0, fraction: 1, want: nil},
	}
	for i, test := range tests {
		got := spiral(test.n, test.fraction)
		if !cmp.Equal(got, test.want) {
			t.Errorf("unexpected indices for test %d\n%s", i, cmp.Diff(test.want, got))
		}
	}
}

// recorder is a classifier recording the frames it is given. The first
// byte of a frame is 'a' for an animal, 'h' for a human, 'n' for a
// classifier without a network and anything else for empty.
type recorder struct {
	mu    sync.Mutex
	calls []byte
}

func (r *recorder) RunRaw(img []byte, f classify.Format) (float64, float64, error) {
	r.mu.Lock()
	r.calls = append(r.calls, img[1])
	r.mu.Unlock()
	switch img[0] {
	case 'a':
		return 1, 0, nil
	case 'h':
		return 1, 1, nil
	case 'n':
		return 0, 0, classify.ErrNoModel
	default:
		return 0, 0, nil
	}
}

// rawFrames returns two byte frames, the first byte holding the class of
// the frame and the second its index.
func rawFrames(classes string) []byte {
	var b []byte
	for i := range classes {
		b = append(b, classes[i], byte(i))
	}
	return b
}

func newTestEventPipeline(t *testing.T, cls classify.Classifier, fraction float64) *eventPipeline {
	l := (*logging.TestLogger)(t)
	return &eventPipeline{
		fraction: fraction,
		format:   classify.RGB,
		cls:      &classify.Thresholded{Classifier: cls, Animal: 0.5, Human: 0.5},
		log:      l,
		loader:   event.Loader{RawSize: 2, Log: l},
		out:      make(chan Item, 1),
	}
}

func TestClassifySpiral(t *testing.T) {
	rec := &recorder{}
	p := newTestEventPipeline(t, rec, 1)
	d := &event.Data{}
	for i, c := range "eeaeeeeee" {
		d.RawFrames = append(d.RawFrames, []byte{byte(c), byte(i)})
	}
	keep, err := p.classify(d)
	if err != nil || !keep {
		t.Errorf("expected event to be kept, got: %t, err: %v", keep, err)
	}
	want := []byte{4, 3, 5, 2}
	if !bytes.Equal(rec.calls, want) {
		t.Errorf("unexpected classification order, got: %v, want: %v", rec.calls, want)
	}
}

func writeEvent(t *testing.T, base, name, classes string) string {
	t.Helper()
	dir := filepath.Join(base, name)
	err := os.Mkdir(dir, 0755)
	if err != nil {
		t.Fatalf("could not create event: %v", err)
	}
	err = os.WriteFile(filepath.Join(dir, buffer.RawFile), rawFrames(classes), 0644)
	if err != nil {
		t.Fatalf("could not write raw frames: %v", err)
	}
	return dir
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name     string
		dir      string
		classes  string
		fraction float64
		keep     bool
		exists   bool
	}{
		{name: "animal", dir: "event_0", classes: "eeaee", fraction: 1, keep: true, exists: true},
		{name: "empty", dir: "event_1", classes: "eeeee", fraction: 1, keep: false, exists: false},
		{name: "human before animal", dir: "event_2", classes: "eahee", fraction: 1, keep: false, exists: false},
		{name: "middle only", dir: "event_3", classes: "aaeaa", fraction: 0, keep: false, exists: false},
		{name: "not an event", dir: "other", classes: "eeeee", fraction: 1, keep: false, exists: true},
		{name: "no detector", dir: "event_4", classes: "eenee", fraction: 1, keep: false, exists: true},
	}

	base := t.TempDir()
	for _, test := range tests {
		p := newTestEventPipeline(t, &recorder{}, test.fraction)
		dir := writeEvent(t, base, test.dir, test.classes)
		p.process(context.Background(), dir)

		select {
		case it := <-p.out:
			if !test.keep {
				t.Errorf("did not expect %s event to be kept", test.name)
			} else if it.Event.Dir != dir || len(it.Event.RawFrames) != len(test.classes) {
				t.Errorf("unexpected event for %s: %+v", test.name, it.Event)
			}
		default:
			if test.keep {
				t.Errorf("expected %s event to be kept", test.name)
			}
		}

		_, err := os.Stat(dir)
		if exists := err == nil; exists != test.exists {
			t.Errorf("unexpected existence of %s event directory, got: %t, want: %t", test.name, exists, test.exists)
		}
	}
}

// fakeCamera gives the frames sent on its channel and times out once the
// channel is closed and drained.
type fakeCamera struct {
	frames chan *device.Frame
	stop   chan struct{}
	once   sync.Once
}

func (c *fakeCamera) Name() string            { return "fake" }
func (c *fakeCamera) Set(config.Config) error { return nil }
func (c *fakeCamera) Start() error            { return nil }
func (c *fakeCamera) IsRunning() bool         { return true }
func (c *fakeCamera) Resolution() (int, int)  { return 16, 16 }
func (c *fakeCamera) FrameRate() int          { return 10 }

func (c *fakeCamera) Stop() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *fakeCamera) Get(time.Duration) (*device.Frame, error) {
	select {
	case <-c.stop:
		return nil, device.ErrStopped
	case f, ok := <-c.frames:
		if ok {
			return f, nil
		}
		time.Sleep(time.Millisecond)
		return nil, device.ErrTimeout
	}
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Logger:            (*logging.TestLogger)(t),
		Mode:              config.ModeByFrame,
		Input:             config.InputFile,
		FrameRate:         10,
		Width:             16,
		Height:            16,
		SmallThreshold:    10,
		SoTVThreshold:     50,
		ContextLength:     0.5,
		SmoothingFactor:   0.2,
		MaxSequencePeriod: 10,
		AnimalThreshold:   0.5,
		HumanThreshold:    0.5,
	}
}

func TestFramePipeline(t *testing.T) {
	tr, err := New(testConfig(t), classify.Func(func(img []byte, f classify.Format) (float64, float64, error) {
		return 1, 0, nil
	}), nil)
	if err != nil {
		t.Fatalf("could not create trap: %v", err)
	}

	// Frames 10 to 19 move; the rest are still.
	dims := mvec.DimsFor(16, 16)
	cam := &fakeCamera{frames: make(chan *device.Frame, 40), stop: make(chan struct{})}
	for i := 0; i < 40; i++ {
		v := mvec.Vector{}
		if i >= 10 && i < 20 {
			v.X = 100
		}
		cam.frames <- &device.Frame{Image: []byte{'a'}, Motion: dims.Uniform(v), Timestamp: float64(i)}
	}
	close(cam.frames)
	tr.newCamera = func(config.Config, device.Sinks) (camera, error) { return cam, nil }

	err = tr.Start()
	if err != nil {
		t.Fatalf("could not start trap: %v", err)
	}
	defer tr.Stop()

	var got []float64
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		it, err := tr.Get(ctx)
		cancel()
		if err != nil {
			t.Fatalf("unexpected error from Get: %v", err)
		}
		if it.Frame == nil {
			break
		}
		got = append(got, it.Frame.Timestamp)
	}

	if len(got) == 0 {
		t.Fatal("expected frames to be kept")
	}
	var has15 bool
	for i, ts := range got {
		if i > 0 && ts <= got[i-1] {
			t.Errorf("frames out of order: %v", got)
		}
		if ts == 15 {
			has15 = true
		}
	}
	if !has15 {
		t.Errorf("expected moving frame 15 to be kept, got: %v", got)
	}
}

func TestEndAfter(t *testing.T) {
	tests := []struct {
		context float64
		want    int
	}{
		{context: 0.5, want: 5},
		{context: 2, want: 20},
		{context: 0.01, want: 1},
	}
	for _, test := range tests {
		c := testConfig(t)
		c.ContextLength = test.context
		p := newFramePipeline(c, nil, nil, nil)
		if p.endAfter != test.want {
			t.Errorf("unexpected still frames ending sequence for context %v, got: %d, want: %d", test.context, p.endAfter, test.want)
		}
		p.queue.Close()
	}
}

func TestUpdate(t *testing.T) {
	tr, err := New(testConfig(t), classify.Func(func([]byte, classify.Format) (float64, float64, error) {
		return 0, 0, nil
	}), nil)
	if err != nil {
		t.Fatalf("could not create trap: %v", err)
	}

	err = tr.Update(map[string]string{"FrameRate": "25", "Pipeline": "by_event"})
	if err != nil {
		t.Fatalf("unexpected error from Update: %v", err)
	}
	c := tr.Config()
	if c.FrameRate != 25 || c.Mode != config.ModeByEvent {
		t.Errorf("unexpected config after update: frame rate %d, mode %d", c.FrameRate, c.Mode)
	}

	_, err = tr.Get(context.Background())
	if err != ErrNotRunning {
		t.Errorf("unexpected error from Get when stopped, got: %v, want: %v", err, ErrNotRunning)
	}
}
