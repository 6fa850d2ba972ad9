/*
DESCRIPTION
  classify.go provides the interface to the animal classifier and the
  thresholding of its confidences.

AUTHORS
  Scott Barnard <scott@ausocean.org>
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package classify provides the animal and human classifier used to decide
// which frames and events are kept. The classifier itself is opaque: any
// model reporting an animal and a human confidence for an image may be used.
package classify

import (
	"errors"
	"fmt"
)

// Format is the encoding of an image given to a Classifier.
type Format int

// Image formats.
const (
	JPEG Format = iota
	RGB
	RGBA
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "JPEG"
	case RGB:
		return "RGB"
	case RGBA:
		return "RGBA"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// BytesPerPixel returns the number of bytes per pixel of a raw format, or
// zero for a compressed format.
func (f Format) BytesPerPixel() int {
	switch f {
	case RGB:
		return 3
	case RGBA:
		return 4
	default:
		return 0
	}
}

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "JPEG", "jpeg":
		return JPEG, nil
	case "RGB", "rgb":
		return RGB, nil
	case "RGBA", "rgba":
		return RGBA, nil
	default:
		return 0, fmt.Errorf("unknown image format: %q", s)
	}
}

// Classifier is implemented by models reporting their confidence, in
// [0, 1], that an image contains an animal and that it contains a human.
// Models that do not detect humans report a human confidence of zero.
type Classifier interface {
	RunRaw(img []byte, f Format) (animal, human float64, err error)
}

// ErrBadImage is returned by classifiers for images that cannot be decoded.
var ErrBadImage = errors.New("could not decode image")

// ErrNoModel is returned by classifiers with no network loaded.
var ErrNoModel = errors.New("no detector network loaded")

// Default confidence thresholds.
const (
	DefaultAnimalThreshold = 0.2
	DefaultHumanThreshold  = 0.5
)

// Thresholded applies confidence thresholds to a Classifier.
type Thresholded struct {
	Classifier
	Animal float64 // Minimum confidence for an animal detection.
	Human  float64 // Minimum confidence for a human detection.
}

// Run classifies img and reports whether each confidence reached its
// threshold.
func (t *Thresholded) Run(img []byte, f Format) (animal, human bool, err error) {
	a, h, err := t.RunRaw(img, f)
	if err != nil {
		return false, false, err
	}
	return a >= t.Animal, h >= t.Human, nil
}

// Func adapts a function to the Classifier interface.
type Func func(img []byte, f Format) (animal, human float64, err error)

// RunRaw implements Classifier.
func (fn Func) RunRaw(img []byte, f Format) (animal, human float64, err error) {
	return fn(img, f)
}
