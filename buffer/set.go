/*
DESCRIPTION
  set.go provides Set, which groups the motion, H.264 and raw buffer pairs
  of a camera so that they are switched and flushed together.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package buffer

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/logging"
)

// Stream file names within an event directory.
const (
	H264File   = "clip.h264"
	RawFile    = "clip.dat"
	MotionFile = "clip_vect.dat"
)

// Set holds the buffer pairs of a camera. Any of the pairs may be nil if the
// camera does not produce that stream.
type Set struct {
	H264   *Pair
	Raw    *Pair
	Motion *Pair

	log logging.Logger

	mu   sync.Mutex // Guards rate.
	rate bitrate.Calculator
}

// NewSet returns a new Set of the given pairs.
func NewSet(h264, raw, motion *Pair, l logging.Logger) *Set {
	return &Set{H264: h264, Raw: raw, Motion: motion, log: l}
}

// pairs returns the non-nil pairs in lock order.
func (s *Set) pairs() []*Pair {
	var p []*Pair
	for _, b := range []*Pair{s.H264, s.Raw, s.Motion} {
		if b != nil {
			p = append(p, b)
		}
	}
	return p
}

// Switch swaps the active and inactive rings of every pair as a single
// step, so no write lands in the old active ring of one stream and the new
// active ring of another.
func (s *Set) Switch() {
	p := s.pairs()
	for _, b := range p {
		b.flushMu.Lock()
	}
	for _, b := range p {
		b.mu.Lock()
	}
	for _, b := range p {
		b.switchLocked()
	}
	for i := len(p) - 1; i >= 0; i-- {
		p[i].mu.Unlock()
	}
	for i := len(p) - 1; i >= 0; i-- {
		p[i].flushMu.Unlock()
	}
}

// Flush switches the pairs and appends their inactive rings to the stream
// files in dir. If isStart is true the pairs' seek functions trim the
// context written. A failure to write one stream does not prevent the
// others being written.
func (s *Set) Flush(dir string, isStart bool) error {
	s.Switch()
	var errs []error
	var total int64
	for _, b := range s.pairs() {
		n, err := b.WriteInactive(filepath.Join(dir, b.Name()), isStart)
		total += n
		if err != nil {
			s.log.Error("could not flush buffer", "stream", b.Name(), "error", err.Error())
			errs = append(errs, err)
		}
	}
	s.mu.Lock()
	s.rate.Report(int(total))
	s.mu.Unlock()
	s.log.Debug("flushed buffers", "dir", dir, "start", isStart, "bytes", total)
	return errors.Join(errs...)
}

// BytesWritten returns the number of H.264 bytes written since the last
// switch, or of the first non-nil stream if there is no H.264 pair.
func (s *Set) BytesWritten() int64 {
	if s.H264 != nil {
		return s.H264.BytesWritten()
	}
	for _, b := range s.pairs() {
		return b.BytesWritten()
	}
	return 0
}

// Bitrate returns the rate at which data has most recently been flushed to
// disk.
func (s *Set) Bitrate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate.Bitrate()
}
