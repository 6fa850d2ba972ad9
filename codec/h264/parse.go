/*
DESCRIPTION
  parse.go provides H.264 NAL unit parsing utilities for the extraction of
  syntax elements.

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

package h264

import (
	"errors"
)

// ErrNoSPS is returned by Trim for streams without a sequence parameter set.
var ErrNoSPS = errors.New("no sequence parameter set")

// nalUnits calls fn with the type and start code offset of every NAL unit
// in the byte stream b, stopping early if fn returns false.
func nalUnits(b []byte, fn func(typ, off int) bool) {
	sc := frameScanner{buf: b}
	for {
		c, ok := sc.readByte()
		if !ok {
			return
		}
		for i := 1; c == 0x00 && i != 4; i++ {
			c, ok = sc.readByte()
			if !ok {
				return
			}
			if c != 0x01 || (i != 2 && i != 3) {
				continue
			}

			c, ok = sc.readByte()
			if !ok {
				return
			}
			if !fn(int(c&0x1f), sc.off-(i+2)) {
				return
			}
		}
	}
}

// HasSPS reports whether the access unit au carries a sequence parameter set,
// i.e. whether decoding can begin at au.
func HasSPS(au []byte) bool {
	var found bool
	nalUnits(au, func(t, _ int) bool {
		found = t == nalTypeSPS
		return !found
	})
	return found
}

type frameScanner struct {
	off int
	buf []byte
}

func (s *frameScanner) readByte() (b byte, ok bool) {
	if s.off >= len(s.buf) {
		return 0, false
	}
	b = s.buf[s.off]
	s.off++
	return b, true
}

// Trim will trim down a given byte stream of video data so that a key frame
// appears first. Leading bytes, such as slices referencing frames from before
// the stream was cut, are dropped.
func Trim(n []byte) ([]byte, error) {
	off := -1
	nalUnits(n, func(t, o int) bool {
		if t == nalTypeSPS {
			off = o
			return false
		}
		return true
	})
	if off == -1 {
		return nil, ErrNoSPS
	}
	return n[off:], nil
}
