/*
DESCRIPTION
  mvec.go provides functionality for handling the motion vector output of
  the Raspberry Pi camera's H.264 encoder, and the motion records kept in
  motion buffers and written to clip_vect.dat files.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mvec provides motion vector grid and motion record encoding.
//
// The encoder outputs one vector per 16x16 macroblock, plus one extra
// column, in row-major order. Each vector is a signed 8 bit x component, a
// signed 8 bit y component and an unsigned 16 bit sum of absolute
// differences, little-endian.
package mvec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// VectorSize is the size of one packed vector in bytes.
const VectorSize = 4

// headerSize is the size of the timestamp and score preceding the vectors
// of a motion record.
const headerSize = 16

// NotScored is the score recorded for frames that the motion filter skipped.
const NotScored = -1.0

var errShortRecord = errors.New("motion record too short")

// Vector is a single macroblock motion vector.
type Vector struct {
	X, Y int8
	SAD  uint16
}

// Magnitude returns the length of the vector's displacement.
func (v Vector) Magnitude() float64 {
	return math.Hypot(float64(v.X), float64(v.Y))
}

// Dims holds the dimensions of a motion vector grid.
type Dims struct {
	Rows, Cols int
}

// DimsFor returns the motion vector grid dimensions for the given video
// resolution.
func DimsFor(width, height int) Dims {
	return Dims{
		Rows: (height + 15) / 16,
		Cols: (width+15)/16 + 1,
	}
}

// GridSize returns the size in bytes of one packed grid.
func (d Dims) GridSize() int { return d.Rows * d.Cols * VectorSize }

// RecordSize returns the size in bytes of one motion record.
func (d Dims) RecordSize() int { return headerSize + d.GridSize() }

// At returns the vector at row r and column c of the packed grid g.
func (d Dims) At(g []byte, r, c int) Vector {
	i := (r*d.Cols + c) * VectorSize
	return Vector{
		X:   int8(g[i]),
		Y:   int8(g[i+1]),
		SAD: binary.LittleEndian.Uint16(g[i+2:]),
	}
}

// Put packs v into the grid g at row r and column c.
func (d Dims) Put(g []byte, r, c int, v Vector) {
	i := (r*d.Cols + c) * VectorSize
	g[i] = byte(v.X)
	g[i+1] = byte(v.Y)
	binary.LittleEndian.PutUint16(g[i+2:], v.SAD)
}

// Uniform returns a packed grid with every element set to v.
func (d Dims) Uniform(v Vector) []byte {
	g := make([]byte, d.GridSize())
	for r := 0; r < d.Rows; r++ {
		for c := 0; c < d.Cols; c++ {
			d.Put(g, r, c, v)
		}
	}
	return g
}

// Record is a scored motion vector grid with its capture time.
type Record struct {
	Timestamp float64 // Seconds since the unix epoch.
	Score     float64 // SoTV score, or NotScored.
	Vectors   []byte  // Packed grid.
}

// AppendRecord appends the encoding of r to dst and returns the extended
// slice.
func AppendRecord(dst []byte, r Record) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(r.Timestamp))
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(r.Score))
	return append(dst, r.Vectors...)
}

// ParseRecord decodes a motion record. The returned Vectors slice refers to
// b.
func ParseRecord(b []byte) (Record, error) {
	if len(b) < headerSize {
		return Record{}, fmt.Errorf("%w: %d bytes", errShortRecord, len(b))
	}
	return Record{
		Timestamp: math.Float64frombits(binary.LittleEndian.Uint64(b)),
		Score:     math.Float64frombits(binary.LittleEndian.Uint64(b[8:])),
		Vectors:   b[headerSize:],
	}, nil
}

// Timestamp returns the timestamp of the encoded record b.
func Timestamp(b []byte) (float64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("%w: %d bytes", errShortRecord, len(b))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}
