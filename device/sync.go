/*
DESCRIPTION
  sync.go provides Synchroniser, which pairs the images and motion vector
  grids written by a camera into Frames.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package device

import (
	"io"
	"sync"
	"time"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/utils/logging"
)

// Synchroniser pairs images and motion grids, written through the sinks
// returned by Images and Motion, into Frames. An image is paired with the
// next motion grid to arrive; if a second image arrives first, the older
// image is dropped. When frames are not collected quickly enough the oldest
// is dropped, so writers never block.
type Synchroniser struct {
	format classify.Format
	log    logging.Logger
	now    func() time.Time

	mu      sync.Mutex
	image   []byte
	motion  []byte
	dropped uint64

	frames chan *Frame
	stop   chan struct{}
	once   sync.Once
}

// NewSynchroniser returns a new Synchroniser holding up to backlog frames.
func NewSynchroniser(format classify.Format, backlog int, l logging.Logger) *Synchroniser {
	if backlog < 1 {
		backlog = 1
	}
	return &Synchroniser{
		format: format,
		log:    l,
		now:    time.Now,
		frames: make(chan *Frame, backlog),
		stop:   make(chan struct{}),
	}
}

// Images returns the sink for images.
func (s *Synchroniser) Images() io.Writer { return writerFunc(s.writeImage) }

// Motion returns the sink for motion grids.
func (s *Synchroniser) Motion() io.Writer { return writerFunc(s.writeMotion) }

type writerFunc func(p []byte) (int, error)

func (fn writerFunc) Write(p []byte) (int, error) { return fn(p) }

func (s *Synchroniser) writeImage(p []byte) (int, error) {
	s.mu.Lock()
	if s.image != nil {
		s.dropped++
	}
	s.image = append([]byte(nil), p...)
	s.pair()
	s.mu.Unlock()
	return len(p), nil
}

func (s *Synchroniser) writeMotion(p []byte) (int, error) {
	s.mu.Lock()
	s.motion = append([]byte(nil), p...)
	s.pair()
	s.mu.Unlock()
	return len(p), nil
}

// pair emits a frame if both halves are present. s.mu must be held.
func (s *Synchroniser) pair() {
	if s.image == nil || s.motion == nil {
		return
	}
	f := &Frame{
		Image:     s.image,
		Format:    s.format,
		Motion:    s.motion,
		Timestamp: float64(s.now().UnixNano()) / 1e9,
	}
	s.image, s.motion = nil, nil

	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
			s.dropped++
		default:
		}
	}
}

// Dropped returns the number of images dropped.
func (s *Synchroniser) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Get returns the next frame, waiting up to timeout.
func (s *Synchroniser) Get(timeout time.Duration) (*Frame, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case f := <-s.frames:
		return f, nil
	case <-s.stop:
		select {
		case f := <-s.frames:
			return f, nil
		default:
			return nil, ErrStopped
		}
	case <-t.C:
		return nil, ErrTimeout
	}
}

// Close causes Get to return ErrStopped once buffered frames are collected.
func (s *Synchroniser) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
