/*
DESCRIPTION
  cheby2.go designs Chebyshev type II lowpass filters as cascades of
  second-order sections.

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

import (
	"errors"
	"math"
	"math/cmplx"
	"sort"
)

// Design errors.
var (
	errBadOrder       = errors.New("filter order must be at least 1")
	errBadAttenuation = errors.New("stopband attenuation must be positive")
	errBadWn          = errors.New("normalised cutoff must lie in (0, 1)")
)

// imagTol decides when a root is treated as real.
const imagTol = 1e-12

// Cheby2 designs a digital Chebyshev type II lowpass filter of the given order
// and returns it as second-order sections. attenuation is the minimum stopband
// attenuation in dB and wn is the stopband edge normalised to the Nyquist
// frequency.
func Cheby2(order int, attenuation, wn float64) ([]Section, error) {
	switch {
	case order < 1:
		return nil, errBadOrder
	case attenuation <= 0:
		return nil, errBadAttenuation
	case wn <= 0 || wn >= 1:
		return nil, errBadWn
	}

	z, p, k := cheb2Prototype(order, attenuation)

	// Prewarp and scale the prototype to the cutoff. The digital design uses a
	// sample rate of 2 so that wn is relative to Nyquist.
	const fs = 2.0
	warped := 2 * fs * math.Tan(math.Pi*wn/fs)
	for i := range z {
		z[i] *= complex(warped, 0)
	}
	for i := range p {
		p[i] *= complex(warped, 0)
	}
	k *= math.Pow(warped, float64(len(p)-len(z)))

	// Bilinear transform.
	const fs2 = 2 * fs
	num, den := complex(1, 0), complex(1, 0)
	for i := range z {
		num *= fs2 - z[i]
		z[i] = (fs2 + z[i]) / (fs2 - z[i])
	}
	for i := range p {
		den *= fs2 - p[i]
		p[i] = (fs2 + p[i]) / (fs2 - p[i])
	}
	for len(z) < len(p) {
		z = append(z, -1)
	}
	k *= real(num / den)

	return zpkToSections(z, p, k), nil
}

// cheb2Prototype returns the zeros, poles and gain of an analog Chebyshev type
// II lowpass prototype with its stopband edge at 1 rad/s.
func cheb2Prototype(n int, rs float64) ([]complex128, []complex128, float64) {
	de := 1 / math.Sqrt(math.Pow(10, 0.1*rs)-1)
	mu := math.Asinh(1/de) / float64(n)

	var m []float64
	if n%2 == 1 {
		for i := -n + 1; i < 0; i += 2 {
			m = append(m, float64(i))
		}
		for i := 2; i < n; i += 2 {
			m = append(m, float64(i))
		}
	} else {
		for i := -n + 1; i < n; i += 2 {
			m = append(m, float64(i))
		}
	}

	z := make([]complex128, len(m))
	for i, v := range m {
		z[i] = complex(0, 1/math.Sin(v*math.Pi/(2*float64(n))))
	}

	p := make([]complex128, 0, n)
	for i := -n + 1; i < n; i += 2 {
		e := -cmplx.Exp(complex(0, math.Pi*float64(i)/(2*float64(n))))
		e = complex(math.Sinh(mu)*real(e), math.Cosh(mu)*imag(e))
		p = append(p, 1/e)
	}

	num, den := complex(1, 0), complex(1, 0)
	for _, v := range p {
		num *= -v
	}
	for _, v := range z {
		den *= -v
	}
	return z, p, real(num / den)
}

// zpkToSections groups conjugate pole and zero pairs into second-order
// sections. Each pole pair takes the nearest unused zero pair; sections are
// ordered so the poles closest to the unit circle are applied last. The gain
// is folded into the first section.
func zpkToSections(z, p []complex128, k float64) []Section {
	cp, rp := splitRoots(p)
	cz, rz := splitRoots(z)

	sort.Slice(cp, func(i, j int) bool {
		return 1-cmplx.Abs(cp[i]) < 1-cmplx.Abs(cp[j])
	})

	var sections []Section
	used := make([]bool, len(cz))
	for _, pole := range cp {
		best := -1
		for j, zero := range cz {
			if used[j] {
				continue
			}
			if best == -1 || cmplx.Abs(zero-pole) < cmplx.Abs(cz[best]-pole) {
				best = j
			}
		}
		var b [3]float64
		if best >= 0 {
			used[best] = true
			b = quadratic(cz[best])
		} else {
			b, rz = realPair(rz)
		}
		a := quadratic(pole)
		sections = append(sections, Section{b[0], b[1], b[2], a[0], a[1], a[2]})
	}

	// Remaining real poles pair with remaining real zeros.
	for len(rp) > 0 {
		var a, b [3]float64
		a, rp = realPair(rp)
		b, rz = realPair(rz)
		sections = append(sections, Section{b[0], b[1], b[2], a[0], a[1], a[2]})
	}

	// Reverse so that the poles nearest the unit circle come last.
	for i, j := 0, len(sections)-1; i < j; i, j = i+1, j-1 {
		sections[i], sections[j] = sections[j], sections[i]
	}
	if len(sections) > 0 {
		sections[0][0] *= k
		sections[0][1] *= k
		sections[0][2] *= k
	}
	return sections
}

// splitRoots returns one representative of every conjugate pair (positive
// imaginary part) and all real roots.
func splitRoots(r []complex128) (pairs []complex128, reals []float64) {
	for _, v := range r {
		switch {
		case math.Abs(imag(v)) <= imagTol*math.Max(1, cmplx.Abs(v)):
			reals = append(reals, real(v))
		case imag(v) > 0:
			pairs = append(pairs, v)
		}
	}
	return pairs, reals
}

// quadratic returns the coefficients of (1 - r z^-1)(1 - conj(r) z^-1).
func quadratic(r complex128) [3]float64 {
	return [3]float64{1, -2 * real(r), real(r)*real(r) + imag(r)*imag(r)}
}

// realPair builds a polynomial from up to two real roots taken from the front
// of r, returning the remaining roots.
func realPair(r []float64) ([3]float64, []float64) {
	switch len(r) {
	case 0:
		return [3]float64{1, 0, 0}, r
	case 1:
		return [3]float64{1, -r[0], 0}, r[1:]
	default:
		return [3]float64{1, -(r[0] + r[1]), r[0] * r[1]}, r[2:]
	}
}
