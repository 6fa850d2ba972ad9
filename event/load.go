/*
DESCRIPTION
  load.go provides Loader, which reads a completed event directory back into
  memory as Data.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package event

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/ausocean/camtrap/buffer"
	"github.com/ausocean/camtrap/codec/mvec"
	"github.com/ausocean/utils/logging"
)

// Data is an event loaded from disk.
type Data struct {
	MotionFrames   [][]byte // Motion records, see mvec.ParseRecord.
	RawFrames      [][]byte // Raw raster frames.
	Dir            string
	StartTimestamp float64 // Seconds since the Unix epoch.
}

// Loader loads event directories. RawSize is the size of one raw frame in
// bytes and RecordSize the size of one motion record.
type Loader struct {
	RawSize    int
	RecordSize int
	Log        logging.Logger

	now func() time.Time
}

// Load reads the raw frames and motion records of the event in dir. An error
// is returned if the raw frames cannot be read. Problems reading the motion
// records are logged and the event is returned without them.
func (l *Loader) Load(dir string) (*Data, error) {
	if l.RawSize <= 0 {
		return nil, errors.New("raw frame size not set")
	}
	d := &Data{Dir: dir}

	raw, err := os.ReadFile(filepath.Join(dir, buffer.RawFile))
	if err != nil {
		return nil, errors.Wrap(err, "could not read raw frames")
	}
	d.RawFrames = chunk(raw, l.RawSize)
	if rem := len(raw) % l.RawSize; rem != 0 {
		l.Log.Warning("partial raw frame at end of event", "dir", dir, "bytes", rem)
	}

	now := time.Now
	if l.now != nil {
		now = l.now
	}
	d.StartTimestamp = float64(now().UnixNano()) / 1e9

	if l.RecordSize <= 0 {
		return d, nil
	}
	motion, err := os.ReadFile(filepath.Join(dir, buffer.MotionFile))
	if err != nil {
		l.Log.Error("could not read motion records", "dir", dir, "error", err.Error())
		return d, nil
	}
	d.MotionFrames = chunk(motion, l.RecordSize)
	if len(d.MotionFrames) != 0 {
		ts, err := mvec.Timestamp(d.MotionFrames[0])
		if err == nil {
			d.StartTimestamp = ts
		}
	}
	return d, nil
}

// chunk splits b into size byte chunks, dropping any partial chunk at the
// end.
func chunk(b []byte, size int) [][]byte {
	c := make([][]byte, 0, len(b)/size)
	for len(b) >= size {
		c = append(c, b[:size:size])
		b = b[size:]
	}
	return c
}
