//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  yolo_nocv.go replaces the YOLO classifier when built without OpenCV
  support.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package classify

import (
	"errors"

	"github.com/ausocean/utils/logging"
)

// ErrNoCV is returned by NewYOLO when built without the withcv tag.
var ErrNoCV = errors.New("animal detector requires building with the withcv tag")

// YOLO is unavailable without OpenCV.
type YOLO struct{}

// NewYOLO always returns ErrNoCV.
func NewYOLO(weights, config string, l logging.Logger) (*YOLO, error) {
	return nil, ErrNoCV
}

// RunRaw implements Classifier.
func (*YOLO) RunRaw(img []byte, f Format) (animal, human float64, err error) {
	return 0, 0, ErrNoCV
}

// Close is a no-op.
func (*YOLO) Close() error { return nil }
