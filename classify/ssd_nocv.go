//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  ssd_nocv.go replaces the SSD classifier when built without OpenCV support.

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

import "github.com/ausocean/utils/logging"

// SSD is unavailable without OpenCV.
type SSD struct{}

// NewSSD always returns ErrNoCV.
func NewSSD(model, config string, humans bool, l logging.Logger) (*SSD, error) {
	return nil, ErrNoCV
}

// RunRaw implements Classifier.
func (*SSD) RunRaw(img []byte, f Format) (animal, human float64, err error) {
	return 0, 0, ErrNoCV
}

// Close is a no-op.
func (*SSD) Close() error { return nil }
