/*
DESCRIPTION
  file.go provides an implementation of the Camera interface that replays a
  recorded event directory.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides an implementation of Camera that replays the
// streams of a recorded event directory at the capture frame rate.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ausocean/camtrap/buffer"
	"github.com/ausocean/camtrap/codec/h264"
	"github.com/ausocean/camtrap/codec/mvec"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/event"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/utils/logging"
)

// Number of synchronised frames held for Get.
const frameBacklog = 4

// Replay is an implementation of the Camera interface that replays an event
// directory written by the trap. Motion vector grids are taken from the
// motion records, raw frames from the raw clip and access units from the
// H.264 clip. A raw frame is replayed with every RawFrameRateDivisor'th grid,
// matching the decimation applied when it was recorded. Once the recording
// is exhausted Get times out until Stop is called.
type Replay struct {
	cfg       config.Config
	sinks     device.Sinks
	sync      *device.Synchroniser
	log       logging.Logger
	set       bool
	done      chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New returns a new Replay writing its streams to s.
func New(l logging.Logger, s device.Sinks) *Replay { return &Replay{log: l, sinks: s} }

// Name returns the name of the device.
func (r *Replay) Name() string {
	return "File"
}

// Set sets the Replay's config to the passed config. The event directory is
// given by InputPath.
func (r *Replay) Set(c config.Config) error {
	var errs device.MultiError
	if c.InputPath == "" {
		errs = append(errs, errors.New("no input path"))
	}
	if c.FrameRate == 0 {
		errs = append(errs, errors.New("no frame rate"))
	}
	if c.Width == 0 || c.Height == 0 {
		errs = append(errs, errors.New("no resolution"))
	}
	if c.RawFrameSize() == 0 {
		errs = append(errs, errors.New("no raw frame size"))
	}
	if len(errs) != 0 {
		return errs
	}
	if c.RawFrameRateDivisor == 0 {
		c.RawFrameRateDivisor = 1
	}
	r.cfg = c
	r.set = true
	return nil
}

// Start loads the event directory and starts replaying it.
func (r *Replay) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.set {
		return errors.New("Replay has not been set with config")
	}
	if r.isRunning {
		return nil
	}

	dims := mvec.DimsFor(int(r.cfg.Width), int(r.cfg.Height))
	l := event.Loader{RawSize: r.cfg.RawFrameSize(), RecordSize: dims.RecordSize(), Log: r.log}
	d, err := l.Load(r.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("could not load event: %w", err)
	}
	if len(d.MotionFrames) == 0 {
		return fmt.Errorf("no motion records in %s", r.cfg.InputPath)
	}

	r.done = make(chan struct{})
	r.sync = device.NewSynchroniser(r.cfg.RawFormat, frameBacklog, r.log)
	interval := time.Duration(float64(time.Second) / float64(r.cfg.FrameRate))

	r.wg.Add(1)
	go r.replay(d, interval)

	if r.sinks.Video != nil {
		clip, err := r.loadVideo()
		if err != nil {
			r.log.Warning("no video to replay", "error", err.Error())
		} else {
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				err := h264.Lex(r.sinks.Video, &stoppable{bytes.NewReader(clip), r.done}, interval)
				if err != nil && !errors.Is(err, errStopped) {
					r.log.Debug("video replay finished", "error", err.Error())
				}
			}()
		}
	}
	r.isRunning = true
	return nil
}

// loadVideo returns the H.264 clip of the event, starting at its first
// sequence parameter set.
func (r *Replay) loadVideo() ([]byte, error) {
	clip, err := os.ReadFile(filepath.Join(r.cfg.InputPath, buffer.H264File))
	if err != nil {
		return nil, err
	}
	trimmed, err := h264.Trim(clip)
	if err != nil {
		return nil, err
	}
	if n := len(clip) - len(trimmed); n != 0 {
		r.log.Debug("dropped leading video bytes", "bytes", n)
	}
	return trimmed, nil
}

// replay writes the raw frames and motion grids of d at the given interval.
func (r *Replay) replay(d *event.Data, interval time.Duration) {
	defer r.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	div := int(r.cfg.RawFrameRateDivisor)
	for i, m := range d.MotionFrames {
		select {
		case <-r.done:
			return
		case <-ticker.C:
		}

		if i%div == 0 && i/div < len(d.RawFrames) {
			img := d.RawFrames[i/div]
			r.sync.Images().Write(img)
			if r.sinks.Raw != nil {
				r.write(r.sinks.Raw, img, "raw")
			}
		}

		rec, err := mvec.ParseRecord(m)
		if err != nil {
			r.log.Warning("bad motion record", "index", i, "error", err.Error())
			continue
		}
		r.sync.Motion().Write(rec.Vectors)
		if r.sinks.Motion != nil {
			r.write(r.sinks.Motion, rec.Vectors, "motion")
		}
	}
	r.log.Info("replay finished", "frames", len(d.MotionFrames))
}

func (r *Replay) write(w io.Writer, p []byte, stream string) {
	_, err := w.Write(p)
	if err != nil {
		r.log.Warning("could not write to sink", "stream", stream, "error", err.Error())
	}
}

// Get returns the next replayed frame.
func (r *Replay) Get(timeout time.Duration) (*device.Frame, error) {
	r.mu.Lock()
	s := r.sync
	r.mu.Unlock()
	if s == nil {
		return nil, device.ErrStopped
	}
	return s.Get(timeout)
}

// Resolution returns the resolution of the recording.
func (r *Replay) Resolution() (int, int) { return int(r.cfg.Width), int(r.cfg.Height) }

// FrameRate returns the replay frame rate.
func (r *Replay) FrameRate() int { return int(r.cfg.FrameRate) }

// Stop stops the replay such that Get returns ErrStopped once buffered
// frames are collected.
func (r *Replay) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isRunning {
		return nil
	}
	close(r.done)
	r.wg.Wait()
	r.sync.Close()
	r.isRunning = false
	return nil
}

// IsRunning is used to determine if the Replay device is running.
func (r *Replay) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

var errStopped = errors.New("replay stopped")

// stoppable is a reader that fails once done is closed.
type stoppable struct {
	r    io.Reader
	done chan struct{}
}

func (s *stoppable) Read(p []byte) (int, error) {
	select {
	case <-s.done:
		return 0, errStopped
	default:
		return s.r.Read(p)
	}
}
