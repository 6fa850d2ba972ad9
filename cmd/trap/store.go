/*
DESCRIPTION
  store.go provides the output routine, which writes the frames and events
  kept by the trap to the output directory.

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
	"time"

	"github.com/ausocean/camtrap/output"
	"github.com/ausocean/camtrap/trap"
)

// Time waited before polling a trap that is not running.
const idleWait = time.Second

// store collects kept outputs from the trap and writes them until ctx is
// cancelled. The output directory is taken from the trap config each time
// the trap is started.
func (a *app) store(ctx context.Context) {
	var (
		w   *output.Writer
		dir string
	)
	defer func() {
		if w != nil {
			w.Close()
		}
	}()

	for {
		it, err := a.tr.Get(ctx)
		switch {
		case err == nil:
		case errors.Is(err, trap.ErrNotRunning):
			if w != nil {
				w.EndSequence()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(idleWait):
			}
			continue
		case ctx.Err() != nil:
			return
		default:
			a.log.Error(pkg+"could not get output", "error", err.Error())
			continue
		}

		if path := a.tr.Config().OutputPath; w == nil || path != dir {
			if w != nil {
				w.Close()
			}
			w, err = output.New(path, a.log)
			if err != nil {
				a.log.Error(pkg+"could not create output writer", "error", err.Error())
				w = nil
				continue
			}
			dir = path
		}

		err = a.write(w, it)
		if err != nil {
			a.log.Error(pkg+"could not write output", "error", err.Error())
		}
	}
}

// write writes one trap output with w. A frame-mode item with no frame ends
// the current sequence.
func (a *app) write(w *output.Writer, it trap.Item) error {
	switch {
	case it.Event != nil:
		_, err := w.WriteEvent(it.Event, it.Sensor)
		if err != nil {
			return err
		}
		a.kept.Add(1)
	case it.Frame != nil:
		err := w.WriteFrame(it.Frame, it.Sensor)
		if err != nil {
			return err
		}
		a.kept.Add(1)
	default:
		return w.EndSequence()
	}
	return nil
}
