/*
DESCRIPTION
  ring.go provides Ring, a fixed capacity circular byte buffer that keeps an
  index of the frames written to it.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package buffer provides the RAM buffers that hold the most recent seconds
// of camera output so that an event can be written to disk together with the
// context that preceded it.
//
// Each stream (motion records, H.264 access units and raw frames) is held in
// a Pair of Rings. The camera writes to the active ring while the inactive
// ring is written to disk, and the roles are swapped by Switch. The three
// pairs of a camera are switched together through a Set so that their
// inactive rings always cover the same span of time.
package buffer

import (
	"io"
)

// Frame describes one write held by a Ring.
type Frame struct {
	Offset int64 // Stream position of the first byte.
	Len    int   // Length in bytes.
	Key    bool  // Whether decoding may start at this frame.
}

// Ring is a fixed capacity circular byte buffer. When a write does not fit,
// the oldest bytes are overwritten. Every write is recorded as a Frame; frames
// that have been partially overwritten are evicted from the index so that
// Frames only ever describes complete writes. Ring is not safe for concurrent
// use.
type Ring struct {
	data   []byte
	start  int64 // Stream position of the oldest byte held.
	end    int64 // Stream position one past the newest byte.
	frames []Frame
}

// NewRing returns a new Ring holding at most capacity bytes.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{data: make([]byte, capacity)}
}

// Write appends p to the ring as a single frame, overwriting the oldest data
// if the ring is full. It always reports len(p) bytes written.
func (r *Ring) Write(p []byte, key bool) int {
	n := len(p)
	if n == 0 {
		return 0
	}
	r.frames = append(r.frames, Frame{Offset: r.end, Len: n, Key: key})

	src := p
	if len(src) > len(r.data) {
		src = src[len(src)-len(r.data):]
	}
	pos := int((r.end + int64(n-len(src))) % int64(len(r.data)))
	c := copy(r.data[pos:], src)
	copy(r.data, src[c:])

	r.end += int64(n)
	if r.end-r.start > int64(len(r.data)) {
		r.start = r.end - int64(len(r.data))
		r.evict()
	}
	return n
}

// evict drops frames whose first byte has been overwritten.
func (r *Ring) evict() {
	i := 0
	for i < len(r.frames) && r.frames[i].Offset < r.start {
		i++
	}
	if i == 0 {
		return
	}
	r.frames = append(r.frames[:0], r.frames[i:]...)
}

// Frames returns the index of complete frames held, oldest first. The
// returned slice must not be modified and is only valid until the next
// Write or Truncate.
func (r *Ring) Frames() []Frame { return r.frames }

// Len returns the number of bytes held.
func (r *Ring) Len() int { return int(r.end - r.start) }

// Cap returns the capacity of the ring in bytes.
func (r *Ring) Cap() int { return len(r.data) }

// WriteTo writes the frames from index from onwards to w, oldest first.
func (r *Ring) WriteTo(w io.Writer, from int) (int64, error) {
	if from < 0 || from >= len(r.frames) {
		return 0, nil
	}
	first := r.frames[from].Offset
	size := len(r.data)
	n := int(r.end - first)
	pos := int(first % int64(size))

	var total int64
	if pos+n <= size {
		m, err := w.Write(r.data[pos : pos+n])
		return int64(m), err
	}
	m, err := w.Write(r.data[pos:])
	total += int64(m)
	if err != nil {
		return total, err
	}
	m, err = w.Write(r.data[:n-(size-pos)])
	total += int64(m)
	return total, err
}

// Truncate discards everything held by the ring.
func (r *Ring) Truncate() {
	r.start = r.end
	r.frames = r.frames[:0]
}
