/*
NAME
  filter.go

AUTHORS
  Ella Pietraroia <ella@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package filter provides motion filtering of camera motion vectors and the
// IIR filters used to smooth motion scores in time.
package filter

import (
	"io"
)

// Filter is implemented by filters that consume camera output as it is
// written.
type Filter interface {
	io.WriteCloser
}

// MotionDetector is implemented by filters that can report whether motion is
// currently present.
type MotionDetector interface {
	IsMotion() bool
}

// Compile-time checks.
var (
	_ Filter         = (*Analyser)(nil)
	_ MotionDetector = (*Analyser)(nil)
)
