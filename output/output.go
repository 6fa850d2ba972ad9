/*
DESCRIPTION
  output.go provides Writer, which stores the frames and events kept by a
  trap in an output directory.

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

// Package output stores the frames and events kept by a camera trap.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/ausocean/camtrap/buffer"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/event"
	"github.com/ausocean/camtrap/sensor"
	"github.com/ausocean/utils/logging"
)

// MetaFile is the name of the metadata file written with each output.
const MetaFile = "event.json"

// Free disk space below which writes are refused.
const spaceBuffer = 50000000 // 50MB.

// Time format used to name outputs.
const timeFormat = "2006-01-02_15-04-05"

// Meta is the metadata written with each kept event or sequence.
type Meta struct {
	StartTime     float64     `json:"start_time"`
	RawFrames     int         `json:"raw_frames"`
	MotionRecords int         `json:"motion_records,omitempty"`
	Timestamps    []float64   `json:"timestamps,omitempty"`
	Sensor        *sensor.Log `json:"sensor,omitempty"`
}

// Writer stores kept events and frames in a directory. Kept event
// directories are moved into it. Kept frames are appended to a clip per
// sequence. A Writer is not safe for concurrent use.
type Writer struct {
	dir string
	log logging.Logger

	// free returns the free space on disk in bytes.
	free func() (uint64, error)

	clip   *os.File // Current sequence clip, nil between sequences.
	seqDir string
	meta   Meta
}

// New returns a new Writer storing outputs in dir, which is created if it
// does not exist.
func New(dir string, l logging.Logger) (*Writer, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, errors.Wrap(err, "could not create output directory")
	}
	return &Writer{dir: dir, log: l, free: freeSpace}, nil
}

// freeSpace returns the space available on the root file system.
func freeSpace() (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs("/", &stat); err != nil {
		return 0, fmt.Errorf("could not read system disk space: %w", err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

func (w *Writer) checkSpace() error {
	w.log.Debug("checking disk space")
	avail, err := w.free()
	if err != nil {
		return err
	}
	w.log.Debug("available disk space in bytes", "availableSpace", avail)
	if avail < spaceBuffer {
		return fmt.Errorf("reached limit of disk space with a buffer of %v bytes, abandoning write", spaceBuffer)
	}
	return nil
}

// name returns an unused path in the output directory for an output
// starting at ts.
func (w *Writer) name(ts float64) string {
	base := filepath.Join(w.dir, time.Unix(0, int64(ts*1e9)).UTC().Format(timeFormat))
	path := base
	for i := 1; ; i++ {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			return path
		}
		path = base + "_" + strconv.Itoa(i)
	}
}

// WriteEvent moves the event directory of d into the output directory and
// writes its metadata, with the sensor log s if not nil. The path of the
// stored event is returned.
func (w *Writer) WriteEvent(d *event.Data, s *sensor.Log) (string, error) {
	err := w.checkSpace()
	if err != nil {
		return "", err
	}

	dst := w.name(d.StartTimestamp)
	err = os.Rename(d.Dir, dst)
	if err != nil {
		return "", errors.Wrap(err, "could not move event to output")
	}

	err = writeMeta(dst, Meta{
		StartTime:     d.StartTimestamp,
		RawFrames:     len(d.RawFrames),
		MotionRecords: len(d.MotionFrames),
		Sensor:        s,
	})
	if err != nil {
		return dst, err
	}
	w.log.Info("event written", "path", dst, "frames", len(d.RawFrames))
	return dst, nil
}

// WriteFrame appends the image of f to the current sequence's clip, starting
// a new clip if there is none. The sensor log s of the first frame of a
// sequence is kept with the sequence.
func (w *Writer) WriteFrame(f *device.Frame, s *sensor.Log) error {
	if w.clip == nil {
		err := w.checkSpace()
		if err != nil {
			return err
		}
		dir := w.name(f.Timestamp)
		err = os.Mkdir(dir, 0755)
		if err != nil {
			return errors.Wrap(err, "could not create sequence directory")
		}
		w.log.Debug("creating new sequence clip", "dir", dir)
		clip, err := os.Create(filepath.Join(dir, buffer.RawFile))
		if err != nil {
			return errors.Wrap(err, "could not create sequence clip")
		}
		w.clip, w.seqDir = clip, dir
		w.meta = Meta{StartTime: f.Timestamp, Sensor: s}
	}

	_, err := w.clip.Write(f.Image)
	if err != nil {
		return errors.Wrap(err, "could not write frame")
	}
	w.meta.RawFrames++
	w.meta.Timestamps = append(w.meta.Timestamps, f.Timestamp)
	return nil
}

// EndSequence closes the current sequence clip and writes its metadata. It
// does nothing if no sequence is in progress.
func (w *Writer) EndSequence() error {
	if w.clip == nil {
		return nil
	}
	err := w.clip.Close()
	w.clip = nil
	if err != nil {
		return errors.Wrap(err, "could not close sequence clip")
	}
	err = writeMeta(w.seqDir, w.meta)
	if err != nil {
		return err
	}
	w.log.Info("sequence written", "path", w.seqDir, "frames", w.meta.RawFrames)
	return nil
}

// Close ends any sequence in progress.
func (w *Writer) Close() error { return w.EndSequence() }

func writeMeta(dir string, m Meta) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not marshal metadata")
	}
	err = os.WriteFile(filepath.Join(dir, MetaFile), b, 0644)
	if err != nil {
		return errors.Wrap(err, "could not write metadata")
	}
	return nil
}
