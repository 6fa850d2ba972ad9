/*
DESCRIPTION
  analyser.go provides the Analyser, a filter that receives the motion vector
  output of the camera, scores each frame using a SoTV filter and writes
  scored motion records to a destination such as a motion buffer pair.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ausocean/camtrap/codec/mvec"
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"
)

// Process queue parameters.
const (
	queueLen         = 100
	queueReadTimeout = 100 * time.Millisecond
	queueWriteWait   = 0
)

// Analyser is a Filter that scores motion vector grids written to it and
// writes a motion record per grid to its destination. Grids are queued so
// that the camera is never held up by scoring; when the queue is full the
// oldest grid is dropped.
//
// Scoring aims to finish within half a frame interval. When a score takes
// longer than this, the following ceil(elapsed/interval) grids are recorded
// with score mvec.NotScored so that the analyser can catch up.
type Analyser struct {
	dst      io.Writer
	sotv     *SoTV
	dims     mvec.Dims
	interval time.Duration
	queue    *pool.Buffer
	isMotion atomic.Bool
	skipped  atomic.Uint64
	log      logging.Logger
	now      func() time.Time
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewAnalyser returns a new Analyser writing records to dst and starts its
// processing routine.
func NewAnalyser(dst io.Writer, s *SoTV, d mvec.Dims, framerate float64, l logging.Logger) *Analyser {
	return newAnalyser(dst, s, d, framerate, l, time.Now)
}

func newAnalyser(dst io.Writer, s *SoTV, d mvec.Dims, framerate float64, l logging.Logger, now func() time.Time) *Analyser {
	a := &Analyser{
		dst:      dst,
		sotv:     s,
		dims:     d,
		interval: time.Duration(float64(time.Second) / framerate),
		queue:    pool.NewBuffer(queueLen, d.GridSize(), queueWriteWait),
		log:      l,
		now:      now,
		done:     make(chan struct{}),
	}
	a.wg.Add(1)
	go a.process()
	return a
}

// Write implements io.Writer. p must hold exactly one motion vector grid.
func (a *Analyser) Write(p []byte) (int, error) {
	if len(p) != a.dims.GridSize() {
		return 0, fmt.Errorf("unexpected motion grid size: got %d, want %d", len(p), a.dims.GridSize())
	}
	n, err := a.queue.Write(p)
	switch err {
	case nil:
		a.queue.Flush()
	case pool.ErrDropped:
		a.log.Debug("motion process queue full, grid dropped")
		return len(p), nil
	default:
		return n, fmt.Errorf("could not queue motion grid: %w", err)
	}
	return n, nil
}

// IsMotion reports whether the most recently scored grid exceeded the motion
// threshold.
func (a *Analyser) IsMotion() bool { return a.isMotion.Load() }

// Skipped returns the number of grids recorded without a score.
func (a *Analyser) Skipped() uint64 { return a.skipped.Load() }

// Close implements io.Closer. Close stops the processing routine; grids still
// queued are discarded.
func (a *Analyser) Close() error {
	close(a.done)
	a.wg.Wait()
	return nil
}

func (a *Analyser) process() {
	defer a.wg.Done()
	var (
		skip int
		rec  []byte
		grid = make([]byte, a.dims.GridSize())
	)
	for {
		select {
		case <-a.done:
			a.log.Info("terminating motion analyser routine")
			return
		default:
		}

		chunk, err := a.queue.Next(queueReadTimeout)
		switch err {
		case nil:
		case pool.ErrTimeout, io.EOF:
			continue
		default:
			a.log.Error("unexpected error reading motion queue", "error", err.Error())
			continue
		}
		copy(grid, chunk.Bytes())
		chunk.Close()

		score := mvec.NotScored
		if skip > 0 {
			skip--
			a.skipped.Add(1)
		} else {
			start := a.now()
			score = a.sotv.Score(grid)
			a.isMotion.Store(score > a.sotv.Threshold())
			elapsed := a.now().Sub(start)
			if elapsed > a.interval/2 {
				skip = int(math.Ceil(float64(elapsed) / float64(a.interval)))
				a.log.Debug("motion scoring over budget, skipping frames", "elapsed", elapsed.String(), "skip", skip)
			}
		}

		rec = mvec.AppendRecord(rec[:0], mvec.Record{
			Timestamp: float64(a.now().UnixNano()) / 1e9,
			Score:     score,
			Vectors:   grid,
		})
		_, err = a.dst.Write(rec)
		if err != nil {
			a.log.Error("could not write motion record", "error", err.Error())
		}
	}
}
