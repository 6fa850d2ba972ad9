/*
DESCRIPTION
  pair.go provides Pair, a double buffer of Rings where one ring receives
  writes while the other is written to disk.

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
	"fmt"
	"os"
	"sync"

	"github.com/ausocean/utils/logging"
)

// KeyFunc reports whether decoding may start at the frame p.
type KeyFunc func(p []byte) bool

// SeekFunc returns the index of the frame at which the context of an event
// begins. It returns false if no valid starting frame exists.
type SeekFunc func(frames []Frame) (int, bool)

// ErrNoSyncPoint is returned by WriteInactive when the start of an event
// has no frame from which decoding can begin. The buffered data is
// discarded.
var ErrNoSyncPoint = errors.New("no sync point in buffer")

// Pair holds an active Ring, which receives camera writes, and an inactive
// Ring, which holds data waiting to be written to disk.
type Pair struct {
	name string
	key  KeyFunc
	seek SeekFunc
	log  logging.Logger

	// flushMu guards inactive against a concurrent Switch during a flush.
	flushMu sync.Mutex

	mu       sync.Mutex // Guards the fields below.
	active   *Ring
	inactive *Ring
	written  int64
}

// NewPair returns a new Pair with rings of the given capacity in bytes.
// The name is used as the file name of the stream within an event
// directory. Both key and seek may be nil, in which case no frame is a key
// frame and the whole inactive ring is written at the start of an event.
func NewPair(name string, capacity int, key KeyFunc, seek SeekFunc, l logging.Logger) *Pair {
	return &Pair{
		name:     name,
		key:      key,
		seek:     seek,
		log:      l,
		active:   NewRing(capacity),
		inactive: NewRing(capacity),
	}
}

// Name returns the file name of the pair's stream.
func (p *Pair) Name() string { return p.name }

// Write implements io.Writer. Each call to Write is held as a single frame.
func (p *Pair) Write(b []byte) (int, error) {
	key := p.key != nil && p.key(b)
	p.mu.Lock()
	n := p.active.Write(b, key)
	p.written += int64(n)
	p.mu.Unlock()
	return n, nil
}

// BytesWritten returns the number of bytes written to the active ring since
// the last Switch.
func (p *Pair) BytesWritten() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

// Switch swaps the active and inactive rings and resets the byte count.
func (p *Pair) Switch() {
	p.flushMu.Lock()
	p.mu.Lock()
	p.switchLocked()
	p.mu.Unlock()
	p.flushMu.Unlock()
}

func (p *Pair) switchLocked() {
	p.active, p.inactive = p.inactive, p.active
	p.written = 0
}

// WriteInactive appends the contents of the inactive ring to the file at
// path, creating it if needed, and then empties the ring. If isStart is
// true the ring's seek function chooses the first frame written.
func (p *Pair) WriteInactive(path string, isStart bool) (int64, error) {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()
	defer p.inactive.Truncate()

	from := 0
	if isStart && p.seek != nil {
		frames := p.inactive.Frames()
		if len(frames) != 0 {
			var ok bool
			from, ok = p.seek(frames)
			if !ok {
				p.log.Error("no sync point in buffer, discarding", "stream", p.name, "frames", len(frames))
				return 0, ErrNoSyncPoint
			}
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("could not open stream file: %w", err)
	}
	n, err := p.inactive.WriteTo(f, from)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("could not write %s: %w", p.name, err)
	}
	return n, f.Close()
}
