/*
NAME
  lex_test.go

DESCRIPTION
  lex_test.go provides tests for the lexer in lex.go and the parsing
  utilities in parse.go.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	sps = []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x1f}
	pps = []byte{0x00, 0x00, 0x00, 0x01, 0x68, 0xce, 0x3c, 0x80}
	idr = []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x21}
	p1  = []byte{0x00, 0x00, 0x00, 0x01, 0x41, 0x9a, 0x02, 0x03}
	p2  = []byte{0x00, 0x00, 0x01, 0x41, 0x9a, 0x04, 0x05}
)

func join(b ...[]byte) []byte { return bytes.Join(b, nil) }

type chunkWriter [][]byte

func (w *chunkWriter) Write(p []byte) (int, error) {
	*w = append(*w, append([]byte(nil), p...))
	return len(p), nil
}

func TestLex(t *testing.T) {
	aud := audPrefix[:]
	stream := join(sps, pps, idr, p1, p2, sps, pps, idr)
	want := [][]byte{
		join(aud, sps, pps, idr),
		join(aud, p1),
		join(aud, p2),
		join(aud, sps, pps, idr),
	}

	var got chunkWriter
	err := Lex(&got, bytes.NewReader(stream), 0)
	if err != io.EOF {
		t.Fatalf("unexpected error from Lex: %v", err)
	}
	if !cmp.Equal([][]byte(got), want) {
		t.Errorf("unexpected access units\n%s", cmp.Diff(want, [][]byte(got)))
	}
}

func TestLexSmallReads(t *testing.T) {
	stream := join(sps, pps, idr, p1, p1, p1)
	var got chunkWriter
	err := Lex(&got, &oneByteReader{b: stream}, 0)
	if err != io.EOF {
		t.Fatalf("unexpected error from Lex: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("unexpected number of access units, got: %d, want: 4", len(got))
	}
}

type oneByteReader struct {
	b []byte
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	p[0] = r.b[0]
	r.b = r.b[1:]
	return 1, nil
}

func TestHasSPS(t *testing.T) {
	if !HasSPS(join(audPrefix[:], sps, pps, idr)) {
		t.Error("did not find SPS in key access unit")
	}
	if HasSPS(join(audPrefix[:], p1)) {
		t.Error("found SPS in non-key access unit")
	}
}

func TestTrim(t *testing.T) {
	got, err := Trim(join(p1, p2, sps, pps, idr))
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if want := join(sps, pps, idr); !bytes.Equal(got, want) {
		t.Errorf("unexpected trim result\ngot:  %x\nwant: %x", got, want)
	}

	_, err = Trim(join(p1, p2))
	if err != ErrNoSPS {
		t.Errorf("unexpected error for stream without SPS: %v", err)
	}
}
