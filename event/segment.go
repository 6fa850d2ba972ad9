/*
DESCRIPTION
  segment.go provides Segmenter, which watches the motion state of the
  camera and flushes the RAM buffers into event directories.

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
	"context"
	"time"

	"github.com/ausocean/camtrap/filter"
	"github.com/ausocean/utils/logging"
)

// Default segmentation timings.
const (
	DefaultWarmUp = 5 * time.Second
	DefaultPoll   = time.Second
)

// Flusher is implemented by buffers that can switch and write their
// inactive contents to an event directory.
type Flusher interface {
	Flush(dir string, isStart bool) error
}

// Clock provides the time and sleeping used by a Segmenter.
type Clock interface {
	Now() time.Time

	// Sleep pauses for d, returning early with the context's error if ctx
	// is cancelled.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SegmenterConfig holds the timings of event segmentation.
type SegmenterConfig struct {
	ContextLength  time.Duration // Trail-off recorded after motion stops.
	MaxEventLength time.Duration // Events are ended after this long.
	BufferLength   time.Duration // Length of time held by each RAM buffer.
	WarmUp         time.Duration // Camera settling time before watching motion.
	Poll           time.Duration // Interval between motion checks.
}

// Segmenter is a two state machine, idle or in an event, driven by the
// motion state of the camera. When motion starts it allocates an event
// directory and flushes the buffered context into it, keeps flushing while
// motion continues, and after motion stops records a trail-off before the
// final flush. Completed event directories are sent on Events.
type Segmenter struct {
	cfg    SegmenterConfig
	buf    Flusher
	motion filter.MotionDetector
	dirs   *DirMaker
	clock  Clock
	log    logging.Logger
	events chan string
}

// NewSegmenter returns a new Segmenter. Up to backlog completed events are
// held for the consumer of Events before the Segmenter waits.
func NewSegmenter(c SegmenterConfig, buf Flusher, motion filter.MotionDetector, dirs *DirMaker, backlog int, l logging.Logger) *Segmenter {
	return newSegmenter(c, buf, motion, dirs, backlog, realClock{}, l)
}

func newSegmenter(c SegmenterConfig, buf Flusher, motion filter.MotionDetector, dirs *DirMaker, backlog int, clock Clock, l logging.Logger) *Segmenter {
	if c.WarmUp < 0 {
		c.WarmUp = DefaultWarmUp
	}
	if c.Poll <= 0 {
		c.Poll = DefaultPoll
	}
	return &Segmenter{
		cfg:    c,
		buf:    buf,
		motion: motion,
		dirs:   dirs,
		clock:  clock,
		log:    l,
		events: make(chan string, backlog),
	}
}

// Events returns the channel on which completed event directories are sent.
// The channel is closed when Run returns.
func (s *Segmenter) Events() <-chan string { return s.events }

// Run segments events until ctx is cancelled. An event in progress when ctx
// is cancelled is flushed but not sent, and is left on disk for Recover.
func (s *Segmenter) Run(ctx context.Context) error {
	defer close(s.events)

	s.log.Debug("warming up", "duration", s.cfg.WarmUp)
	err := s.clock.Sleep(ctx, s.cfg.WarmUp)
	if err != nil {
		return err
	}

	for {
		if !s.motion.IsMotion() {
			err = s.clock.Sleep(ctx, s.cfg.Poll)
			if err != nil {
				return err
			}
			continue
		}

		dir, err := s.dirs.Next()
		if err != nil {
			s.log.Error("could not allocate event directory", "error", err.Error())
			err = s.clock.Sleep(ctx, s.cfg.Poll)
			if err != nil {
				return err
			}
			continue
		}

		err = s.record(ctx, dir)
		if err != nil {
			return err
		}

		select {
		case s.events <- dir:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// record follows an event from motion start to the final flush.
func (s *Segmenter) record(ctx context.Context, dir string) error {
	start := s.clock.Now()
	s.log.Info("motion started", "dir", dir)
	s.flush(dir, true)
	last := start

	interval := time.Duration(0.75 * float64(s.cfg.BufferLength))
	for s.motion.IsMotion() && s.clock.Now().Sub(start) < s.cfg.MaxEventLength {
		if s.clock.Now().Sub(last) > interval {
			s.flush(dir, false)
			last = s.clock.Now()
		}
		err := s.clock.Sleep(ctx, s.cfg.Poll)
		if err != nil {
			s.flush(dir, false)
			return err
		}
	}

	s.log.Info("motion ended", "dir", dir, "duration", s.clock.Now().Sub(start))
	err := s.clock.Sleep(ctx, s.cfg.ContextLength)
	s.flush(dir, false)
	return err
}

func (s *Segmenter) flush(dir string, isStart bool) {
	err := s.buf.Flush(dir, isStart)
	if err != nil {
		s.log.Error("could not flush buffers to event", "dir", dir, "start", isStart, "error", err.Error())
	}
}
