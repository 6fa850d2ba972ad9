/*
NAME
  scanner.go

DESCRIPTION
  scanner.go provides a buffered byte scanner used by the H.264 lexer to find
  NAL unit start codes in a byte stream.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264

import "io"

// byteScanner reads from an io.Reader through a fixed buffer.
type byteScanner struct {
	buf []byte
	off int
	r   io.Reader
}

func newByteScanner(r io.Reader, buf []byte) *byteScanner {
	return &byteScanner{r: r, buf: buf[:0]}
}

// scanUntil appends bytes read to dst up to and including the first delim
// byte. It returns the extended slice and the last byte read.
func (c *byteScanner) scanUntil(dst []byte, delim byte) ([]byte, byte, error) {
	for {
		rest := c.buf[c.off:]
		for i, b := range rest {
			if b == delim {
				dst = append(dst, rest[:i+1]...)
				c.off += i + 1
				return dst, b, nil
			}
		}
		dst = append(dst, rest...)
		err := c.reload()
		if err != nil {
			var last byte
			if len(dst) != 0 {
				last = dst[len(dst)-1]
			}
			return dst, last, err
		}
	}
}

func (c *byteScanner) readByte() (byte, error) {
	if c.off >= len(c.buf) {
		err := c.reload()
		if err != nil {
			return 0, err
		}
	}
	b := c.buf[c.off]
	c.off++
	return b, nil
}

func (c *byteScanner) reload() error {
	n, err := c.r.Read(c.buf[:cap(c.buf)])
	c.buf = c.buf[:n]
	c.off = 0
	if err != nil && (err != io.EOF || n == 0) {
		return err
	}
	return nil
}
