/*
DESCRIPTION
  sequence_test.go provides testing for Sequence and Queue.

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
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/utils/logging"
)

// newTestSequence returns a sequence of motion frames with the given
// priorities.
func newTestSequence(smoothing, context int, priorities ...float64) *Sequence {
	s := NewSequence(smoothing, context)
	for _, p := range priorities {
		s.Put(&device.Frame{}, p, Motion)
	}
	return s
}

func labels(s *Sequence) []Label {
	l := make([]Label, s.Len())
	for i, f := range s.frames {
		l[i] = f.Label
	}
	return l
}

func TestPut(t *testing.T) {
	s := newTestSequence(0, 0, 1, 1, 1, 1, 1)
	if s.Len() != 5 {
		t.Fatalf("unexpected length, got: %d, want: 5", s.Len())
	}
	for i, f := range s.frames {
		if f.Index != i {
			t.Errorf("unexpected index, got: %d, want: %d", f.Index, i)
		}
		if f.Label != Unknown {
			t.Errorf("unexpected initial label for frame %d: %v", i, f.Label)
		}
	}
}

func TestHighestPriority(t *testing.T) {
	s := newTestSequence(0, 0, 5, 4, 3, 6, 9, 2, 1)
	want := []int{4, 3, 0, 1, 2, 5, 6}
	var got []int
	for f := s.HighestPriority(); f != nil; f = s.HighestPriority() {
		got = append(got, f.Index)
		f.Label = Animal
		if len(got) > len(want) {
			t.Fatal("HighestPriority did not terminate")
		}
	}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected order\n%s", cmp.Diff(want, got))
	}
}

func TestHighestPriorityTies(t *testing.T) {
	s := newTestSequence(0, 0, 3, 7, 7, 1)
	f := s.HighestPriority()
	if f == nil || f.Index != 1 {
		t.Fatalf("expected frame 1, got: %v", f)
	}
}

func TestHighestPriorityStill(t *testing.T) {
	type put struct {
		score  float64
		status MotionStatus
	}
	tests := []struct {
		name string
		puts []put
		want int
	}{
		{
			name: "still frames after motion",
			puts: []put{{500, Motion}, {-1, Still}, {-1, Still}},
			want: 0,
		},
		{
			name: "still frame with higher score",
			puts: []put{{10, Still}, {5, Motion}},
			want: 1,
		},
		{
			name: "still frames either side",
			puts: []put{{90, Still}, {0, Motion}, {90, Still}},
			want: 1,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := NewSequence(0, 0)
			for _, p := range test.puts {
				s.Put(&device.Frame{}, p.score, p.status)
			}

			f := s.HighestPriority()
			if f == nil || f.Index != test.want {
				t.Fatalf("expected motion frame %d, got: %v", test.want, f)
			}
			s.LabelEmpty(f)
			if f := s.HighestPriority(); f != nil {
				t.Errorf("did not expect still frame to be returned, got: %d", f.Index)
			}
		})
	}
}

func TestLabelAnimal(t *testing.T) {
	s := newTestSequence(1, 0, 1, 2, 3, 4, 5, 6, 7)
	s.LabelAnimal(s.frames[3])
	want := []Label{Unknown, Unknown, Animal, Animal, Animal, Unknown, Unknown}
	if got := labels(s); !cmp.Equal(got, want) {
		t.Errorf("unexpected labels\n%s", cmp.Diff(want, got))
	}
	for _, f := range s.frames[2:5] {
		if f.Priority != -1 {
			t.Errorf("expected labelled frame %d to lose priority, got: %v", f.Index, f.Priority)
		}
	}

	// Smoothing is clamped at the ends of the sequence.
	s = newTestSequence(2, 0, 1, 2, 3, 4)
	s.LabelAnimal(s.frames[0])
	s.LabelAnimal(s.frames[3])
	want = []Label{Animal, Animal, Animal, Animal}
	if got := labels(s); !cmp.Equal(got, want) {
		t.Errorf("unexpected labels at bounds\n%s", cmp.Diff(want, got))
	}
}

func TestLabelEmpty(t *testing.T) {
	s := newTestSequence(1, 0, 1, 2, 3, 4, 5, 6, 7)
	s.LabelEmpty(s.frames[3])
	want := []Label{Unknown, Unknown, Unknown, Empty, Unknown, Unknown, Unknown}
	if got := labels(s); !cmp.Equal(got, want) {
		t.Errorf("unexpected labels\n%s", cmp.Diff(want, got))
	}
}

func TestLabelAnimalOverwritesEmpty(t *testing.T) {
	s := newTestSequence(1, 0, 1, 2, 3, 4, 5, 6, 7)
	for _, f := range s.frames {
		s.LabelEmpty(f)
	}
	s.LabelAnimal(s.frames[3])
	want := []Label{Empty, Empty, Animal, Animal, Animal, Empty, Empty}
	if got := labels(s); !cmp.Equal(got, want) {
		t.Errorf("unexpected labels\n%s", cmp.Diff(want, got))
	}
}

func TestCloseGaps(t *testing.T) {
	tests := []struct {
		name string
		in   []Label
		want []Label
	}{
		{
			name: "short gap closed",
			in:   []Label{Animal, Empty, Empty, Animal, Empty, Empty, Empty, Animal},
			want: []Label{Animal, Animal, Animal, Animal, Empty, Empty, Empty, Animal},
		},
		{
			name: "leading gap kept",
			in:   []Label{Empty, Animal, Empty, Empty, Animal, Empty, Empty, Empty, Animal},
			want: []Label{Empty, Animal, Animal, Animal, Animal, Empty, Empty, Empty, Animal},
		},
		{
			name: "unlabelled frames closed",
			in:   []Label{Animal, Unknown, Empty, Animal},
			want: []Label{Animal, Animal, Animal, Animal},
		},
		{
			name: "human breaks gap",
			in:   []Label{Animal, Empty, Human, Animal},
			want: []Label{Animal, Empty, Human, Animal},
		},
		{
			name: "trailing gap kept",
			in:   []Label{Animal, Empty},
			want: []Label{Animal, Empty},
		},
	}

	for _, test := range tests {
		s := NewSequence(0, 0)
		for _, l := range test.in {
			s.Put(&device.Frame{}, 1, Motion)
			s.frames[s.Len()-1].Label = l
		}
		s.smoothing = 1
		s.CloseGaps()
		if got := labels(s); !cmp.Equal(got, test.want) {
			t.Errorf("unexpected labels for %s\n%s", test.name, cmp.Diff(test.want, got))
		}
	}
}

func TestAddContext(t *testing.T) {
	s := newTestSequence(0, 2, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	s.LabelEmpty(s.frames[0])
	s.LabelAnimal(s.frames[3])
	s.LabelAnimal(s.frames[4])
	s.LabelHuman(s.frames[6])
	s.AddContext()
	want := []Label{Empty, Context, Context, Animal, Animal, Context, Human, Unknown, Unknown}
	if got := labels(s); !cmp.Equal(got, want) {
		t.Errorf("unexpected labels\n%s", cmp.Diff(want, got))
	}

	got := s.AnimalOrContextFrames()
	var idx []int
	for _, f := range got {
		idx = append(idx, f.Index)
	}
	if want := []int{1, 2, 3, 4, 5}; !cmp.Equal(idx, want) {
		t.Errorf("unexpected animal or context frames\n%s", cmp.Diff(want, idx))
	}

	// No animal means no context.
	s = newTestSequence(0, 2, 1, 1, 1)
	s.LabelEmpty(s.frames[1])
	s.AddContext()
	if n := len(s.AnimalOrContextFrames()); n != 0 {
		t.Errorf("expected no context, got: %d frames", n)
	}
}

func TestHasMotion(t *testing.T) {
	s := NewSequence(0, 0)
	s.Put(&device.Frame{}, -1, Still)
	if s.HasMotion() {
		t.Error("did not expect motion")
	}
	s.Put(&device.Frame{}, 10, Motion)
	if !s.HasMotion() {
		t.Error("expected motion")
	}
}

// Images given to the test classifier.
var (
	animalImage = []byte{'a'}
	humanImage  = []byte{'h'}
	emptyImage  = []byte{'e'}
	badImage    = []byte{'x'}
)

type countingClassifier struct {
	calls atomic.Int64
}

func (c *countingClassifier) RunRaw(img []byte, f classify.Format) (float64, float64, error) {
	c.calls.Add(1)
	switch img[0] {
	case 'a':
		return 0.9, 0, nil
	case 'h':
		return 0.9, 0.9, nil
	case 'x':
		return 0, 0, classify.ErrBadImage
	default:
		return 0, 0, nil
	}
}

func waitIdle(t *testing.T, q *Queue) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !q.IsIdle() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for queue to be idle")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// drain returns the timestamps of the frames output by q, with -1 for each
// end of sequence.
func drain(t *testing.T, q *Queue) []float64 {
	t.Helper()
	var got []float64
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		f, err := q.Get(ctx)
		cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			return got
		}
		if err != nil {
			t.Fatalf("unexpected error from Get: %v", err)
		}
		if f == nil {
			got = append(got, -1)
			continue
		}
		got = append(got, f.Timestamp)
	}
}

func TestQueue(t *testing.T) {
	cls := &countingClassifier{}
	q := NewQueue(QueueConfig{
		SmoothingFactor:   2,
		MaxSequencePeriod: 10,
		AnimalThreshold:   0.5,
		HumanThreshold:    0.5,
	}, cls, 1, (*logging.TestLogger)(t))
	defer q.Close()

	if q.smoothing != 1 || q.context != 0 || q.maxLen != 10 {
		t.Fatalf("unexpected queue lengths: smoothing %d, context %d, max %d", q.smoothing, q.context, q.maxLen)
	}

	// Four local maxima hold an animal. The tenth frame ends the sequence.
	scores := []float64{1, 5, 1, 6, 1, 7, 1, 8, 1, 2}
	for i, s := range scores {
		img := emptyImage
		if i%2 == 1 && i != 9 {
			img = animalImage
		}
		q.Put(&device.Frame{Image: img, Timestamp: float64(i)}, s, Motion)
	}

	// Still frames are discarded without classification.
	for i := 0; i < 3; i++ {
		q.Put(&device.Frame{Image: animalImage, Timestamp: 100}, -1, Still)
	}
	q.EndSequence()

	// Motion without an animal produces nothing.
	q.Put(&device.Frame{Image: emptyImage, Timestamp: 200}, 50, Motion)
	q.Put(&device.Frame{Image: badImage, Timestamp: 201}, 40, Motion)
	q.EndSequence()

	waitIdle(t, q)
	got := drain(t, q)
	want := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, -1}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected output\n%s", cmp.Diff(want, got))
	}
	if n := cls.calls.Load(); n != 7 {
		t.Errorf("unexpected number of classifier calls, got: %d, want: 7", n)
	}
}

func TestQueueHuman(t *testing.T) {
	cls := &countingClassifier{}
	q := NewQueue(QueueConfig{
		ContextLength:     1,
		MaxSequencePeriod: 100,
		AnimalThreshold:   0.5,
		HumanThreshold:    0.5,
	}, cls, 1, (*logging.TestLogger)(t))
	defer q.Close()

	imgs := [][]byte{emptyImage, emptyImage, animalImage, humanImage, emptyImage}
	for i, img := range imgs {
		q.Put(&device.Frame{Image: img, Timestamp: float64(i)}, float64(10+i), Motion)
	}
	q.EndSequence()

	waitIdle(t, q)
	got := drain(t, q)
	want := []float64{1, 2, -1}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected output\n%s", cmp.Diff(want, got))
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue(QueueConfig{MaxSequencePeriod: 1}, classify.Func(func([]byte, classify.Format) (float64, float64, error) {
		return 0, 0, nil
	}), 1, (*logging.TestLogger)(t))
	q.Close()

	_, err := q.Get(context.Background())
	if err != ErrClosed {
		t.Errorf("unexpected error after close, got: %v, want: %v", err, ErrClosed)
	}
}
