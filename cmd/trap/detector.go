/*
DESCRIPTION
  detector.go provides detector, a classify.Classifier whose network may be
  replaced while the trap is running.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/utils/logging"
)

// model is a loaded network.
type model interface {
	classify.Classifier
	io.Closer
}

// detector holds the network named by the trap config, loading a new one
// when the configured files change.
type detector struct {
	log logging.Logger

	// open loads the network of the given kind from the weights and
	// config files.
	open func(kind uint8, weights, config string, l logging.Logger) (model, error)

	mu      sync.Mutex
	m       model
	kind    uint8
	weights string
	config  string
}

func newDetector(l logging.Logger) *detector {
	return &detector{log: l, open: openModel}
}

// openModel opens the network named by kind, one of the config detectors.
func openModel(kind uint8, weights, cfg string, l logging.Logger) (model, error) {
	switch kind {
	case config.DetectorYOLO:
		return classify.NewYOLO(weights, cfg, l)
	case config.DetectorSSD:
		return classify.NewSSD(weights, cfg, false, l)
	case config.DetectorSSDHuman:
		return classify.NewSSD(weights, cfg, true, l)
	default:
		return nil, fmt.Errorf("unknown detector: %d", kind)
	}
}

// load loads the network of the given kind in weights and config if they
// differ from the current network. The current network is kept if loading
// fails.
func (d *detector) load(kind uint8, weights, config string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.m != nil && kind == d.kind && weights == d.weights && config == d.config {
		return nil
	}
	if weights == "" || config == "" {
		d.log.Warning("no animal detector files configured")
		return nil
	}

	m, err := d.open(kind, weights, config, d.log)
	if err != nil {
		return err
	}
	if d.m != nil {
		err = d.m.Close()
		if err != nil {
			d.log.Warning("could not close previous detector", "error", err.Error())
		}
	}
	d.m, d.kind, d.weights, d.config = m, kind, weights, config
	return nil
}

// RunRaw implements classify.Classifier.
func (d *detector) RunRaw(img []byte, f classify.Format) (animal, human float64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.m == nil {
		return 0, 0, classify.ErrNoModel
	}
	return d.m.RunRaw(img, f)
}
