/*
DESCRIPTION
  device.go provides Camera, an interface that describes a camera that can
  be started and stopped and from which frames, motion vectors and encoded
  video may be obtained.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface and implementations for cameras that
// can be started and stopped and from which frames can be obtained.
package device

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ausocean/camtrap/classify"
)

// Frame is a single captured frame with the motion vectors computed by the
// encoder for it.
type Frame struct {
	Image     []byte
	Format    classify.Format
	Motion    []byte  // Packed motion vector grid, see mvec.Dims.
	Timestamp float64 // Seconds since the Unix epoch.
}

// Errors returned by Camera.Get.
var (
	ErrTimeout = errors.New("timed out waiting for frame")
	ErrStopped = errors.New("camera stopped")
)

// Camera describes a camera from which frames can be obtained.
type Camera interface {
	// Name returns the name of the Camera.
	Name() string

	// Start will start the Camera capturing, after which Get may be called.
	Start() error

	// Stop will stop the Camera capturing. Calls to Get will then return
	// ErrStopped once buffered frames are exhausted.
	Stop() error

	// IsRunning is used to determine if the camera is running.
	IsRunning() bool

	// Get returns the next frame, waiting up to timeout for one to arrive.
	// ErrTimeout is returned on a gap in the stream.
	Get(timeout time.Duration) (*Frame, error)

	// Resolution returns the width and height of captured frames.
	Resolution() (width, height int)

	// FrameRate returns the capture rate in frames per second.
	FrameRate() int
}

// Sinks are the destinations of a camera's streams. Each write to a sink
// holds one unit of its stream: a motion vector grid, an H.264 access unit
// or a raw frame. Nil sinks are not written.
type Sinks struct {
	Motion io.Writer
	Video  io.Writer
	Raw    io.Writer
}

// MultiError implements the built in error interface. MultiError is used here
// to collect multiple errors during validation of configuration parameters for
// cameras.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("device: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// Decimate returns a writer passing on only every nth write to w.
func Decimate(w io.Writer, n int) io.Writer {
	if n <= 1 {
		return w
	}
	return &decimator{w: w, n: n}
}

type decimator struct {
	w    io.Writer
	n, i int
}

func (d *decimator) Write(p []byte) (int, error) {
	i := d.i
	d.i = (d.i + 1) % d.n
	if i != 0 {
		return len(p), nil
	}
	return d.w.Write(p)
}
