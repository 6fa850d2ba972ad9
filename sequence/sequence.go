/*
DESCRIPTION
  sequence.go provides Sequence, an ordered run of frames labelled by the
  animal detector, with temporal smoothing of those labels.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sequence provides a queue that groups frames into sequences of
// motion and runs an animal detector over the fewest frames of each
// sequence needed to label it.
package sequence

import (
	"fmt"

	"github.com/ausocean/camtrap/device"
)

// Label is the category of a frame.
type Label int

// Frame labels.
const (
	Empty Label = iota
	Animal
	Unknown
	Context
	Human
)

func (l Label) String() string {
	switch l {
	case Empty:
		return "empty"
	case Animal:
		return "animal"
	case Unknown:
		return "unknown"
	case Context:
		return "context"
	case Human:
		return "human"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// MotionStatus is the outcome of motion filtering for a frame.
type MotionStatus int

// Motion statuses. Unknown is used where a stream error prevented
// filtering.
const (
	Still MotionStatus = iota
	Motion
	StatusUnknown
)

// LabelledFrame is a frame within a Sequence. Frames of higher priority are
// more likely to contain an animal and are given to the detector first.
type LabelledFrame struct {
	Frame    *device.Frame
	Index    int
	Priority float64
	Label    Label
	Status   MotionStatus
}

// Sequence is a run of consecutive frames. Indices start at zero and
// increase by one with each Put.
type Sequence struct {
	frames    []*LabelledFrame
	smoothing int // Frames either side of a detection also labelled animal.
	context   int // Frames either side of the animal frames labelled context.
}

// NewSequence returns an empty Sequence.
func NewSequence(smoothing, context int) *Sequence {
	return &Sequence{smoothing: smoothing, context: context}
}

// stillPriority is the priority of still frames, below that of any frame
// with motion.
const stillPriority = -1

// Put appends f with the given motion score as its priority. Still frames
// are given the lowest priority whatever their score.
func (s *Sequence) Put(f *device.Frame, score float64, status MotionStatus) {
	if status == Still {
		score = stillPriority
	}
	s.frames = append(s.frames, &LabelledFrame{
		Frame:    f,
		Index:    len(s.frames),
		Priority: score,
		Label:    Unknown,
		Status:   status,
	})
}

// Len returns the number of frames in the sequence.
func (s *Sequence) Len() int { return len(s.frames) }

// HighestPriority returns the unlabelled frame of highest priority, the
// earliest winning ties. Nil is returned when every frame is labelled or the
// best remaining frame is still.
func (s *Sequence) HighestPriority() *LabelledFrame {
	var best *LabelledFrame
	for _, f := range s.frames {
		if f.Label != Unknown {
			continue
		}
		if best == nil || f.Priority > best.Priority {
			best = f
		}
	}
	if best == nil || best.Status == Still {
		return nil
	}
	return best
}

// LabelAnimal labels f, and the frames within the smoothing length either
// side of it, as animal.
func (s *Sequence) LabelAnimal(f *LabelledFrame) {
	start := max(f.Index-s.smoothing, 0)
	stop := min(f.Index+s.smoothing+1, len(s.frames))
	s.label(s.frames[start:stop], Animal)
}

// LabelEmpty labels f alone as empty.
func (s *Sequence) LabelEmpty(f *LabelledFrame) { s.label([]*LabelledFrame{f}, Empty) }

// LabelHuman labels f alone as human.
func (s *Sequence) LabelHuman(f *LabelledFrame) { s.label([]*LabelledFrame{f}, Human) }

func (s *Sequence) label(frames []*LabelledFrame, l Label) {
	for _, f := range frames {
		f.Label = l
		f.Priority = -1
	}
}

// CloseGaps labels as animal any run of empty or unlabelled frames between
// two animal frames that is no longer than twice the smoothing length.
// Frames before the first animal frame are never relabelled, and a human or
// context frame breaks a run.
func (s *Sequence) CloseGaps() {
	last := -1
	gap := 0
	for i, f := range s.frames {
		switch f.Label {
		case Animal:
			if last >= 0 && gap > 0 && gap <= 2*s.smoothing {
				s.label(s.frames[i-gap:i], Animal)
			}
			last = i
			gap = 0
		case Empty, Unknown:
			if last >= 0 {
				gap++
			}
		default:
			last = -1
			gap = 0
		}
	}
}

// AddContext labels up to the context length of frames before the first
// and after the last animal frame as context. Human frames keep their
// label.
func (s *Sequence) AddContext() {
	first, last := -1, -1
	for i, f := range s.frames {
		if f.Label != Animal {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return
	}
	s.contextLabel(s.frames[max(first-s.context, 0):first])
	s.contextLabel(s.frames[last+1 : min(last+1+s.context, len(s.frames))])
}

func (s *Sequence) contextLabel(frames []*LabelledFrame) {
	for _, f := range frames {
		if f.Label == Human {
			continue
		}
		f.Label = Context
		f.Priority = -1
	}
}

// AnimalFrames returns the animal frames in index order.
func (s *Sequence) AnimalFrames() []*LabelledFrame {
	return s.filter(func(l Label) bool { return l == Animal })
}

// AnimalOrContextFrames returns the animal and context frames in index
// order.
func (s *Sequence) AnimalOrContextFrames() []*LabelledFrame {
	return s.filter(func(l Label) bool { return l == Animal || l == Context })
}

func (s *Sequence) filter(keep func(Label) bool) []*LabelledFrame {
	var frames []*LabelledFrame
	for _, f := range s.frames {
		if keep(f.Label) {
			frames = append(frames, f)
		}
	}
	return frames
}

// HasMotion reports whether any frame of the sequence has motion.
func (s *Sequence) HasMotion() bool {
	for _, f := range s.frames {
		if f.Status == Motion {
			return true
		}
	}
	return false
}
