/*
DESCRIPTION
  iir.go provides a cascade of second-order IIR sections used to smooth
  scalar signals in time.

AUTHORS
  David Sutton <davidsutton@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

// Section holds the coefficients of one second-order section in the order
// b0, b1, b2, a0, a1, a2. a0 is assumed to be 1.
type Section [6]float64

// biquad is a single second-order section and its two state taps.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	tap1, tap2 float64
}

// Chain is a cascade of second-order sections. A Chain is not safe for
// concurrent use.
type Chain struct {
	stages []biquad
}

// NewChain returns a Chain built from the given second-order sections,
// applied in the order given.
func NewChain(sos []Section) *Chain {
	c := &Chain{stages: make([]biquad, len(sos))}
	for i, s := range sos {
		c.stages[i] = biquad{b0: s[0], b1: s[1], b2: s[2], a1: s[4], a2: s[5]}
	}
	return c
}

// Filter passes one sample through every stage of the chain and returns the
// output of the final stage.
func (c *Chain) Filter(x float64) float64 {
	for i := range c.stages {
		s := &c.stages[i]
		out := s.b1 * s.tap1
		x -= s.a1 * s.tap1
		out += s.b2 * s.tap2
		x -= s.a2 * s.tap2
		out += x * s.b0
		s.tap2 = s.tap1
		s.tap1 = x
		x = out
	}
	return x
}

// Reset zeroes the state of every stage.
func (c *Chain) Reset() {
	for i := range c.stages {
		c.stages[i].tap1 = 0
		c.stages[i].tap2 = 0
	}
}
