/*
DESCRIPTION
  frame.go provides the frame pipeline, which scores each camera frame for
  motion and labels runs of motion with the sequence queue.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package trap

import (
	"context"
	"errors"
	"time"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/filter"
	"github.com/ausocean/camtrap/sensor"
	"github.com/ausocean/camtrap/sequence"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/utils/logging"
)

// Time waited for a frame before the stream is considered broken.
const frameTimeout = time.Second

// framePipeline runs the motion filter over every frame at the camera rate
// and hands frames to a sequence.Queue, which classifies them at its own
// pace.
type framePipeline struct {
	cam   device.Camera
	sotv  *filter.SoTV
	queue *sequence.Queue
	logs  *sensor.Logs
	log   logging.Logger

	// endAfter is the number of still frames after motion that end a
	// sequence. It spans the context length so the trailing still frames
	// are in the sequence when it is labelled, and can be kept as context
	// after the last animal frame. Motion within this span continues the
	// sequence.
	endAfter int
}

func newFramePipeline(c config.Config, cam device.Camera, cls classify.Classifier, logs *sensor.Logs) *framePipeline {
	fr := float64(c.FrameRate)
	return &framePipeline{
		cam:  cam,
		sotv: filter.NewSoTV(sotvConfig(c), fr, c.Logger),
		queue: sequence.NewQueue(sequence.QueueConfig{
			SmoothingFactor:   c.SmoothingFactor,
			ContextLength:     c.ContextLength,
			MaxSequencePeriod: c.MaxSequencePeriod,
			AnimalThreshold:   c.AnimalThreshold,
			HumanThreshold:    c.HumanThreshold,
		}, cls, fr, c.Logger),
		logs:     logs,
		log:      c.Logger,
		endAfter: max(1, int(c.ContextLength*fr)),
	}
}

func sotvConfig(c config.Config) filter.SoTVConfig {
	return filter.SoTVConfig{
		SmallThreshold: c.SmallThreshold,
		Threshold:      c.SoTVThreshold,
		Cutoff:         c.IIRCutoff,
		Order:          int(c.IIROrder),
		Attenuation:    c.IIRAttenuation,
	}
}

// run scores frames until the camera stops or ctx is cancelled. Frames at or
// above the motion threshold take their score as priority; still frames
// take -1. A gap in the stream ends the current sequence and resets the
// motion filter. A sequence is also ended once a context length of still
// frames follows motion, so that it carries trailing context.
func (p *framePipeline) run(ctx context.Context) {
	var (
		motion bool // Current sequence has motion.
		still  int  // Still frames since the last motion.
	)
	for {
		select {
		case <-ctx.Done():
			p.queue.EndSequence()
			return
		default:
		}

		f, err := p.cam.Get(frameTimeout)
		switch err {
		case nil:
		case device.ErrTimeout:
			p.log.Warning("gap in camera stream, ending sequence")
			p.queue.EndSequence()
			p.sotv.Reset()
			motion, still = false, 0
			continue
		case device.ErrStopped:
			p.log.Info("camera stopped, ending sequence")
			p.queue.EndSequence()
			return
		default:
			p.log.Error("unexpected error getting frame", "error", err.Error())
			continue
		}

		score := p.sotv.Score(f.Motion)
		if score >= p.sotv.Threshold() {
			p.queue.Put(f, score, sequence.Motion)
			motion, still = true, 0
			continue
		}
		p.queue.Put(f, -1, sequence.Still)
		if !motion {
			continue
		}
		still++
		if still >= p.endAfter {
			p.log.Debug("motion ended, ending sequence")
			p.queue.EndSequence()
			motion, still = false, 0
		}
	}
}

func (p *framePipeline) get(ctx context.Context) (Item, error) {
	f, err := p.queue.Get(ctx)
	if errors.Is(err, sequence.ErrClosed) {
		return Item{}, ErrNotRunning
	}
	if err != nil {
		return Item{}, err
	}
	if f == nil {
		return Item{}, nil
	}
	return Item{Frame: f, Sensor: sensorLog(p.logs, f.Timestamp)}, nil
}

func (p *framePipeline) close() error { return p.queue.Close() }

func (p *framePipeline) bitrate() int { return 0 }
