/*
DESCRIPTION
  sotv.go provides a motion filter that scores a frame's motion vectors using
  the Sum of Thresholded Vectors (SoTV). Vectors below a small threshold are
  discarded as noise, the remainder are summed into a single vector, and the x
  and y components of that vector are smoothed in time by Chebyshev type II
  lowpass filters. The magnitude of the smoothed vector is the frame's motion
  score.

AUTHORS
  Ella Pietraroia <ella@ausocean.org>
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"math"

	"github.com/ausocean/camtrap/codec/mvec"
	"github.com/ausocean/utils/logging"
)

// SoTV defaults.
const (
	DefaultSmallThreshold = 10
	DefaultSoTVThreshold  = 300
	DefaultIIRCutoff      = 2.0 // Hz.
	DefaultIIROrder       = 3
	DefaultIIRAttenuation = 35 // dB.
)

// Bounds used when the normalised cutoff falls outside (0, 1).
const (
	minWn = 1e-10
	maxWn = 1 - 1e-10
)

// SoTVConfig holds the tunable parameters of a SoTV filter.
type SoTVConfig struct {
	SmallThreshold float64 // Vectors with magnitude not above this are ignored.
	Threshold      float64 // Score at or above which a frame has motion.
	Cutoff         float64 // IIR cutoff frequency in Hz.
	Order          int     // IIR order.
	Attenuation    float64 // IIR stopband attenuation in dB.
}

// SoTV is a Sum of Thresholded Vectors motion filter. A SoTV is not safe for
// concurrent use.
type SoTV struct {
	small     float64
	threshold float64
	x, y      *Chain
	log       logging.Logger
}

// NewSoTV returns a new SoTV for motion vectors captured at the given frame
// rate. A cutoff outside of (0, Nyquist) is clamped and logged at error level.
func NewSoTV(c SoTVConfig, framerate float64, log logging.Logger) *SoTV {
	wn := c.Cutoff / (framerate / 2)
	switch {
	case wn <= 0:
		log.Error("IIR cutoff frequency too low", "wn", wn)
		wn = minWn
	case wn >= 1:
		log.Error("IIR cutoff frequency too high", "wn", wn)
		wn = maxWn
	}

	sos, err := Cheby2(c.Order, c.Attenuation, wn)
	if err != nil {
		log.Error("could not design IIR filter, using defaults", "error", err.Error())
		sos, err = Cheby2(DefaultIIROrder, DefaultIIRAttenuation, wn)
		if err != nil {
			// wn has been clamped into range and the defaults are valid.
			panic("filter: default IIR design failed: " + err.Error())
		}
	}

	return &SoTV{
		small:     c.SmallThreshold,
		threshold: c.Threshold,
		x:         NewChain(sos),
		y:         NewChain(sos),
		log:       log,
	}
}

// Score returns the smoothed SoTV for one frame of packed motion vectors.
// Every call advances the filter state.
func (s *SoTV) Score(grid []byte) float64 {
	var sx, sy float64
	small2 := s.small * s.small
	for i := 0; i+mvec.VectorSize <= len(grid); i += mvec.VectorSize {
		dx, dy := float64(int8(grid[i])), float64(int8(grid[i+1]))
		if s.small >= 0 && dx*dx+dy*dy <= small2 {
			continue
		}
		sx += dx
		sy += dy
	}
	fx := s.x.Filter(sx)
	fy := s.y.Filter(sy)
	return math.Sqrt(fx*fx + fy*fy)
}

// Detect reports whether the frame's score is at least the configured
// threshold.
func (s *SoTV) Detect(grid []byte) bool {
	return s.Score(grid) >= s.threshold
}

// Threshold returns the motion threshold.
func (s *SoTV) Threshold() float64 { return s.threshold }

// Reset clears the state of both IIR filters. It should be called when the
// motion stream is no longer contiguous.
func (s *SoTV) Reset() {
	s.x.Reset()
	s.y.Reset()
}
