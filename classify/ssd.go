//go:build withcv
// +build withcv

/*
DESCRIPTION
  ssd.go provides SSD, a Classifier running an SSDLite MobileNet v2 model
  through the OpenCV DNN module. The model may detect humans as well as
  animals.

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
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/utils/logging"
)

// SSD is a Classifier backed by a TensorFlow SSDLite network. If built for
// humans, class 1 of the network is human and class 2 animal; otherwise
// every detection is an animal.
type SSD struct {
	mu     sync.Mutex
	net    gocv.Net
	humans bool
	log    logging.Logger
}

// NewSSD loads the TensorFlow network in the given frozen graph and text
// graph files. If humans is true the network is expected to detect humans.
func NewSSD(model, config string, humans bool, l logging.Logger) (*SSD, error) {
	net := gocv.ReadNetFromTensorflow(model, config)
	if net.Empty() {
		return nil, fmt.Errorf("could not load network from %s and %s", model, config)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)
	l.Info("loaded SSD detector", "model", model, "humans", humans)
	return &SSD{net: net, humans: humans, log: l}, nil
}

// RunRaw implements Classifier.
func (s *SSD) RunRaw(img []byte, f Format) (animal, human float64, err error) {
	mat, err := decode(img, f)
	if err != nil {
		return 0, 0, err
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, SSDLiteSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.mu.Lock()
	s.net.SetInput(blob, "")
	out := s.net.Forward("")
	s.mu.Unlock()
	defer out.Close()

	det, err := out.DataPtrFloat32()
	if err != nil {
		return 0, 0, fmt.Errorf("could not read detections: %w", err)
	}
	return parseDetections(det, s.humans)
}

// Close releases the network.
func (s *SSD) Close() error {
	return s.net.Close()
}
