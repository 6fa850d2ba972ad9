/*
DESCRIPTION
  trap.go provides Trap, the camera trap pipeline. A Trap reads a camera,
  filters its frames for motion and keeps the frames or events in which the
  classifier finds an animal.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package trap provides an API for running a camera trap: capturing from a
// camera, detecting motion, classifying candidate frames or events and
// delivering those holding an animal.
package trap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/device/file"
	"github.com/ausocean/camtrap/device/raspivid"
	"github.com/ausocean/camtrap/event"
	"github.com/ausocean/camtrap/sensor"
	"github.com/ausocean/camtrap/trap/config"
)

// ErrNotRunning is returned by Get when the Trap has not been started.
var ErrNotRunning = errors.New("trap not running")

// Item is one output of a Trap. In frame mode Frame holds a kept frame, or
// is nil to mark the end of a sequence. In event mode Event holds a kept
// event. Sensor holds the sensor log closest in time, if any.
type Item struct {
	Frame  *device.Frame
	Event  *event.Data
	Sensor *sensor.Log
}

// camera is a device.Camera that may be configured.
type camera interface {
	device.Camera
	Set(config.Config) error
}

// pipeline is implemented by the frame and event variants of the trap.
type pipeline interface {
	// run processes the camera stream until ctx is cancelled or the camera
	// stops.
	run(ctx context.Context)

	// get returns the next output of the pipeline.
	get(ctx context.Context) (Item, error)

	// close releases the pipeline's resources once run has returned.
	close() error

	// bitrate returns the rate in bits per second at which streams were most
	// recently written to disk.
	bitrate() int
}

// Trap provides methods to control a camera trap session; providing methods
// to start, stop and change the state of an instance using the Config struct.
type Trap struct {
	cfg  config.Config
	cls  classify.Classifier
	logs *sensor.Logs

	// newCamera returns the camera for the current config writing to the
	// given sinks.
	newCamera func(c config.Config, s device.Sinks) (camera, error)

	mu      sync.Mutex // Guards the fields below.
	cam     camera
	p       pipeline
	cancel  context.CancelFunc
	running bool

	wg sync.WaitGroup
}

// New returns a new Trap with the desired configuration. Frames and events
// are classified by cls. If logs is not nil, outputs are given the sensor log
// closest in time.
func New(c config.Config, cls classify.Classifier, logs *sensor.Logs) (*Trap, error) {
	t := &Trap{cls: cls, logs: logs, newCamera: newCamera}
	err := t.setConfig(c)
	if err != nil {
		return nil, fmt.Errorf("could not set config: %w", err)
	}
	return t, nil
}

// Config returns a copy of the Trap's current config.
func (t *Trap) Config() config.Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// setConfig takes a config, checks its validity and then replaces the
// current config.
func (t *Trap) setConfig(c config.Config) error {
	if c.Logger == nil {
		return errors.New("no logger in config")
	}
	c.Logger.Debug("validating config")
	err := c.Validate()
	if err != nil {
		return fmt.Errorf("config struct is bad: %w", err)
	}
	c.Logger.Info("config validated")
	c.Logger.SetLevel(c.LogLevel)
	t.cfg = c
	return nil
}

// newCamera returns the input selected by c.
func newCamera(c config.Config, s device.Sinks) (camera, error) {
	switch c.Input {
	case config.InputRaspivid:
		c.Logger.Debug("using raspivid input")
		return raspivid.New(c.Logger, s), nil
	case config.InputFile:
		c.Logger.Debug("using file input")
		return file.New(c.Logger, s), nil
	default:
		return nil, fmt.Errorf("unrecognised input type: %v", c.Input)
	}
}

// Start starts the camera and the pipeline selected by the config mode.
func (t *Trap) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.cfg.Logger.Warning("start called, but trap already running")
		return nil
	}

	var (
		p   pipeline
		cam camera
		err error
	)
	switch t.cfg.Mode {
	case config.ModeByFrame:
		t.cfg.Logger.Debug("using frame pipeline")
		cam, err = t.setupCamera(device.Sinks{})
		if err != nil {
			return err
		}
		p = newFramePipeline(t.cfg, cam, t.cls, t.logs)
	case config.ModeByEvent:
		t.cfg.Logger.Debug("using event pipeline")
		var ep *eventPipeline
		ep, err = newEventPipeline(t.cfg, t.cls, t.logs)
		if err != nil {
			return fmt.Errorf("could not set up event pipeline: %w", err)
		}
		cam, err = t.setupCamera(ep.sinks())
		if err != nil {
			ep.close()
			return err
		}
		p = ep
	default:
		return fmt.Errorf("unrecognised pipeline mode: %v", t.cfg.Mode)
	}

	t.cfg.Logger.Debug("starting camera")
	err = cam.Start()
	if err != nil {
		p.close()
		return fmt.Errorf("could not start camera: %w", err)
	}
	t.cfg.Logger.Info("camera started", "camera", cam.Name())

	ctx, cancel := context.WithCancel(context.Background())
	t.cam, t.p, t.cancel = cam, p, cancel
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		p.run(ctx)
	}()
	t.running = true
	return nil
}

func (t *Trap) setupCamera(s device.Sinks) (camera, error) {
	cam, err := t.newCamera(t.cfg, s)
	if err != nil {
		return nil, err
	}
	// Defaults are set on validation, so errors here are logged only.
	t.cfg.Logger.Debug("configuring camera")
	err = cam.Set(t.cfg)
	if err != nil {
		t.cfg.Logger.Warning("errors from configuring camera", "errors", err.Error())
	}
	t.cfg.Logger.Info("camera configured")
	return cam, nil
}

// Stop stops the camera and the pipeline. Outputs not yet collected by Get
// are lost.
func (t *Trap) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		t.cfg.Logger.Warning("stop called but trap isn't running")
		return
	}

	t.cfg.Logger.Debug("stopping camera")
	err := t.cam.Stop()
	if err != nil {
		t.cfg.Logger.Error("could not stop camera", "error", err.Error())
	} else {
		t.cfg.Logger.Info("camera stopped")
	}

	t.cancel()
	t.cfg.Logger.Debug("waiting for routines to finish")
	t.wg.Wait()
	t.cfg.Logger.Info("routines finished")

	err = t.p.close()
	if err != nil {
		t.cfg.Logger.Error("could not close pipeline", "error", err.Error())
	}
	t.running = false
}

// Close stops the Trap if it is running.
func (t *Trap) Close() error {
	if t.Running() {
		t.Stop()
	}
	return nil
}

// Running reports whether the Trap has been started.
func (t *Trap) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Bitrate returns the rate in bits per second at which event streams were
// most recently written to disk. It is zero in frame mode or when stopped.
func (t *Trap) Bitrate() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}
	return t.p.bitrate()
}

// Get returns the next kept frame or event, waiting until one is available
// or ctx is cancelled.
func (t *Trap) Get(ctx context.Context) (Item, error) {
	t.mu.Lock()
	p := t.p
	running := t.running
	t.mu.Unlock()
	if !running {
		return Item{}, ErrNotRunning
	}
	return p.get(ctx)
}

// Update takes a map of variables and their values and edits the current
// config if the variables are recognised as valid parameters. A running Trap
// is stopped and must be started again by the caller.
func (t *Trap) Update(vars map[string]string) error {
	if t.Running() {
		t.cfg.Logger.Debug("trap running; stopping for re-config")
		t.Stop()
		t.cfg.Logger.Info("trap was running; stopped for re-config")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.Logger.Debug("checking vars from server", "vars", vars)
	c := t.cfg
	c.Update(vars)
	err := t.setConfig(c)
	if err != nil {
		return err
	}
	t.cfg.Logger.Info("finished reconfig")
	t.cfg.Logger.Debug("config changed", "config", t.cfg)
	return nil
}

// sensorLog returns the sensor log closest to ts, or nil if there is none.
func sensorLog(logs *sensor.Logs, ts float64) *sensor.Log {
	if logs == nil {
		return nil
	}
	l, ok := logs.Get(ts)
	if !ok {
		return nil
	}
	return l
}
