/*
NAME
  lex.go

DESCRIPTION
  lex.go provides a lexer to lex h264 bytestream into access units.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h264 provides a H.264 byte stream lexer and NAL unit parsing
// utilities for finding the sync points of an encoded stream.
package h264

import (
	"io"
	"time"
)

var noDelay = make(chan time.Time)

func init() {
	close(noDelay)
}

// audPrefix is an access unit delimiter NAL unit, written at the start of
// every lexed access unit.
var audPrefix = [...]byte{0x00, 0x00, 0x01, 0x09, 0xf0}

// NAL unit types used by the lexer and parser.
// See Table 7-1 of ITU-T H.264.
const (
	nalTypeNonIDR = 1
	nalTypeIDR    = 5
	nalTypeSEI    = 6
	nalTypeSPS    = 7
	nalTypePPS    = 8
	nalTypeAUD    = 9
)

// Lex lexes H.264 NAL units read from src into access units, writing each
// access unit to dst in a single write, with successive writes being
// performed not earlier than the specified delay. An access unit ends after
// its coded slice (NAL type 1 or 5); parameter sets and SEI preceding a slice
// are kept with it, so an access unit carrying an SPS starts a decodable
// sequence.
func Lex(dst io.Writer, src io.Reader, delay time.Duration) error {
	var tick <-chan time.Time
	if delay == 0 {
		tick = noDelay
	} else {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	const bufSize = 8 << 10

	c := newByteScanner(src, make([]byte, 4<<10)) // Standard file buffer size.

	buf := make([]byte, len(audPrefix), bufSize)
	copy(buf, audPrefix[:])
	writeOut := false

	flush := func() error {
		if !writeOut {
			return io.EOF
		}
		<-tick
		_, err := dst.Write(buf)
		if err != nil {
			return err
		}
		return io.EOF
	}

	for {
		var b byte
		var err error
		buf, b, err = c.scanUntil(buf, 0x00)
		if err != nil {
			if err != io.EOF {
				return err
			}
			return flush()
		}

		for n := 1; b == 0x0 && n < 4; n++ {
			b, err = c.readByte()
			if err != nil {
				if err != io.EOF {
					return err
				}
				return flush()
			}
			buf = append(buf, b)

			if b != 0x1 || (n != 2 && n != 3) {
				continue
			}

			if writeOut {
				<-tick
				_, err := dst.Write(buf[:len(buf)-(n+1)])
				if err != nil {
					return err
				}
				buf = make([]byte, len(audPrefix)+n, bufSize)
				copy(buf, audPrefix[:])
				buf = append(buf, 1)
				writeOut = false
			}

			b, err = c.readByte()
			if err != nil {
				if err != io.EOF {
					return err
				}
				return io.ErrUnexpectedEOF
			}
			buf = append(buf, b)

			switch nalType := b & 0x1f; nalType {
			case nalTypeNonIDR, nalTypeIDR:
				writeOut = true
			}
		}
	}
}
