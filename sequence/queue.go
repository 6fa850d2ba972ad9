/*
DESCRIPTION
  queue.go provides Queue, which batches frames into sequences and labels
  each sequence with an animal detector in its own routine.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sequence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/utils/logging"
)

// ErrClosed is returned by Get once the Queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Initial estimate of the time taken by one detector inference.
const initialInference = time.Second * 10 / 3

// QueueConfig holds the parameters of a Queue.
type QueueConfig struct {
	// SmoothingFactor is the number of seconds over which an animal
	// detection is spread.
	SmoothingFactor float64

	// ContextLength is the number of seconds of context labelled either side
	// of the animal frames of a sequence.
	ContextLength float64

	// MaxSequencePeriod is the number of seconds after which a sequence is
	// ended.
	MaxSequencePeriod float64

	AnimalThreshold float64
	HumanThreshold  float64
}

// Queue groups frames into sequences. Ended sequences holding motion are
// labelled by a detector routine, and their animal and context frames are
// made available through Get, in order, each sequence followed by a nil
// frame. Sequences without an animal produce no output.
type Queue struct {
	cls       *classify.Thresholded
	smoothing int
	context   int
	maxLen    int
	log       logging.Logger

	current *Sequence // Owned by the caller of Put and EndSequence.

	in  fifo[*Sequence]
	out fifo[*device.Frame]

	pending   atomic.Int64 // Sequences queued or being labelled.
	remaining atomic.Int64 // Frames of pending sequences.

	mu        sync.Mutex
	inference time.Duration // Running estimate of one inference.

	done chan struct{}
	wg   sync.WaitGroup
}

// NewQueue returns a new Queue for frames captured at framerate and starts
// its labelling routine.
func NewQueue(c QueueConfig, cls classify.Classifier, framerate float64, l logging.Logger) *Queue {
	q := &Queue{
		cls:       &classify.Thresholded{Classifier: cls, Animal: c.AnimalThreshold, Human: c.HumanThreshold},
		smoothing: int(c.SmoothingFactor * framerate / 2),
		context:   int(c.ContextLength * framerate),
		maxLen:    int(framerate * c.MaxSequencePeriod),
		log:       l,
		in:        newFIFO[*Sequence](),
		out:       newFIFO[*device.Frame](),
		inference: initialInference,
		done:      make(chan struct{}),
	}
	q.current = q.newSequence()
	q.wg.Add(1)
	go q.process()
	return q
}

func (q *Queue) newSequence() *Sequence { return NewSequence(q.smoothing, q.context) }

// Put appends f to the current sequence, ending the sequence if it reaches
// its maximum length. Put never waits on labelling.
func (q *Queue) Put(f *device.Frame, score float64, status MotionStatus) {
	q.current.Put(f, score, status)
	if q.current.Len() >= q.maxLen {
		q.EndSequence()
	}
}

// EndSequence ends the current sequence and starts a new one. The ended
// sequence is queued for labelling only if it holds motion. It is safe to
// call EndSequence repeatedly.
func (q *Queue) EndSequence() {
	s := q.current
	if s.Len() == 0 {
		return
	}
	q.current = q.newSequence()
	if !s.HasMotion() {
		q.log.Debug("discarding still sequence", "frames", s.Len())
		return
	}

	q.pending.Add(1)
	remaining := q.remaining.Add(int64(s.Len()))
	est := q.estimate()
	q.log.Info("end of motion",
		"frames", s.Len(),
		"estimate", (time.Duration(s.Len()) * est).String(),
		"cumulative", (time.Duration(remaining) * est).String(),
	)
	q.in.put(s)
}

// IsIdle reports whether no sequence is queued or being labelled.
func (q *Queue) IsIdle() bool { return q.pending.Load() == 0 }

// Get returns the next frame to be kept, waiting for one if necessary. A nil
// frame marks the end of a sequence's frames.
func (q *Queue) Get(ctx context.Context) (*device.Frame, error) {
	return q.out.get(ctx, q.done)
}

// Close stops the labelling routine. A sequence being labelled is
// abandoned.
func (q *Queue) Close() error {
	close(q.done)
	q.wg.Wait()
	return nil
}

func (q *Queue) estimate() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inference
}

func (q *Queue) process() {
	defer q.wg.Done()
	for {
		s, err := q.in.get(context.Background(), q.done)
		if err != nil {
			q.log.Info("terminating sequence labelling routine")
			return
		}
		ok := q.label(s)
		q.remaining.Add(-int64(s.Len()))
		if !ok {
			q.pending.Add(-1)
			q.log.Info("terminating sequence labelling routine")
			return
		}

		frames := s.AnimalOrContextFrames()
		for _, f := range frames {
			q.out.put(f.Frame)
		}
		if len(frames) != 0 {
			q.out.put(nil)
		}
		q.pending.Add(-1)
	}
}

// label runs the detector over s until every frame of motion is labelled,
// then closes gaps and adds context. False is returned if the Queue was
// closed part way.
func (q *Queue) label(s *Sequence) bool {
	start := time.Now()
	var times []float64
	for f := s.HighestPriority(); f != nil; f = s.HighestPriority() {
		select {
		case <-q.done:
			return false
		default:
		}

		t := time.Now()
		animal, human, err := q.cls.Run(f.Frame.Image, f.Frame.Format)
		times = append(times, time.Since(t).Seconds())
		switch {
		case err != nil:
			q.log.Error("could not classify frame", "index", f.Index, "error", err.Error())
			s.LabelEmpty(f)
		case animal && !human:
			s.LabelAnimal(f)
		case human:
			s.LabelHuman(f)
		default:
			s.LabelEmpty(f)
		}
	}
	s.CloseGaps()
	s.AddContext()

	if len(times) != 0 {
		mean := time.Duration(stat.Mean(times, nil) * float64(time.Second))
		q.mu.Lock()
		q.inference = (q.inference + mean) / 2
		q.mu.Unlock()
	}

	elapsed := time.Since(start)
	q.log.Info("sequence labelled",
		"frames", s.Len(),
		"animal", len(s.AnimalFrames()),
		"inferences", len(times),
		"elapsed", elapsed.String(),
		"fps", float64(s.Len())/elapsed.Seconds(),
	)
	return true
}

// fifo is an unbounded first in first out queue with a single consumer.
type fifo[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
}

func newFIFO[T any]() fifo[T] {
	return fifo[T]{ready: make(chan struct{}, 1)}
}

func (f *fifo[T]) put(v T) {
	f.mu.Lock()
	f.items = append(f.items, v)
	f.mu.Unlock()
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

// get removes and returns the oldest item, waiting until one is available,
// ctx is cancelled or done is closed. Items are still returned after done is
// closed until none remain.
func (f *fifo[T]) get(ctx context.Context, done <-chan struct{}) (T, error) {
	for {
		f.mu.Lock()
		if len(f.items) != 0 {
			v := f.items[0]
			var zero T
			f.items[0] = zero
			f.items = f.items[1:]
			f.mu.Unlock()
			return v, nil
		}
		f.mu.Unlock()

		select {
		case <-f.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-done:
			var zero T
			return zero, ErrClosed
		}
	}
}
