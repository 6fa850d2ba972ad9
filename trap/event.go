/*
DESCRIPTION
  event.go provides the event pipeline, which buffers the camera streams in
  RAM, records events of motion to disk and classifies each recorded event
  from its middle frame outwards.

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
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/ausocean/camtrap/buffer"
	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/codec/h264"
	"github.com/ausocean/camtrap/codec/mvec"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/event"
	"github.com/ausocean/camtrap/filter"
	"github.com/ausocean/camtrap/sensor"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/utils/logging"
)

// Event pipeline queue lengths.
const (
	eventBacklog  = 100 // Recorded events waiting for classification.
	outputBacklog = 16  // Kept events waiting for Get.
)

// eventPipeline records events with an event.Segmenter and classifies each
// completed event in its own routine. Events without an animal are deleted.
type eventPipeline struct {
	base     string
	fraction float64
	format   classify.Format
	cls      *classify.Thresholded
	logs     *sensor.Logs
	log      logging.Logger

	set       *buffer.Set
	analyser  *filter.Analyser
	divisor   int
	segmenter *event.Segmenter
	loader    event.Loader

	out chan Item
}

func newEventPipeline(c config.Config, cls classify.Classifier, logs *sensor.Logs) (*eventPipeline, error) {
	dirs, err := event.NewDirMaker(c.EventDir)
	if err != nil {
		return nil, err
	}

	var (
		fr   = float64(c.FrameRate)
		w, h = int(c.Width), int(c.Height)
		dims = mvec.DimsFor(w, h)
		div  = int(max(1, c.RawFrameRateDivisor))
		l    = c.Logger
	)
	video := buffer.NewPair(buffer.H264File, buffer.H264Capacity(int(c.Bitrate)*1000, c.BufferLength), h264.HasSPS, buffer.H264Seek(c.ContextLength, fr), l)
	raw := buffer.NewPair(buffer.RawFile, buffer.RawCapacity(int(c.RawWidth), int(c.RawHeight), c.RawFormat.BytesPerPixel(), int(c.FrameRate), div, c.BufferLength), nil, buffer.RawSeek(c.ContextLength, fr/float64(div)), l)
	motion := buffer.NewPair(buffer.MotionFile, buffer.MotionCapacity(dims.RecordSize(), c.BufferLength, fr), nil, buffer.MotionSeek(c.ContextLength, fr), l)
	set := buffer.NewSet(video, raw, motion, l)

	a := filter.NewAnalyser(motion, filter.NewSoTV(sotvConfig(c), fr, l), dims, fr, l)

	seg := event.NewSegmenter(event.SegmenterConfig{
		ContextLength:  seconds(c.ContextLength),
		MaxEventLength: seconds(c.MaxEventLength),
		BufferLength:   seconds(c.BufferLength),
		WarmUp:         event.DefaultWarmUp,
		Poll:           event.DefaultPoll,
	}, set, a, dirs, eventBacklog, l)

	return &eventPipeline{
		base:      c.EventDir,
		fraction:  c.DetectorFraction,
		format:    c.RawFormat,
		cls:       &classify.Thresholded{Classifier: cls, Animal: c.AnimalThreshold, Human: c.HumanThreshold},
		logs:      logs,
		log:       l,
		set:       set,
		analyser:  a,
		divisor:   div,
		segmenter: seg,
		loader:    event.Loader{RawSize: c.RawFrameSize(), RecordSize: dims.RecordSize(), Log: l},
		out:       make(chan Item, outputBacklog),
	}, nil
}

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

// sinks returns the camera sinks feeding the pipeline's buffers.
func (p *eventPipeline) sinks() device.Sinks {
	return device.Sinks{
		Motion: p.analyser,
		Video:  p.set.H264,
		Raw:    device.Decimate(p.set.Raw, p.divisor),
	}
}

// run first classifies events left by a previous run, then events recorded
// by the segmenter until ctx is cancelled.
func (p *eventPipeline) run(ctx context.Context) {
	defer close(p.out)

	old, err := event.Recover(p.base)
	if err != nil {
		p.log.Error("could not recover events", "error", err.Error())
	}
	if len(old) != 0 {
		p.log.Info("recovered events from previous run", "events", len(old))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := p.segmenter.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			p.log.Error("event segmentation stopped", "error", err.Error())
		}
	}()
	defer wg.Wait()

	for _, dir := range old {
		if ctx.Err() != nil {
			return
		}
		p.process(ctx, dir)
	}
	for dir := range p.segmenter.Events() {
		p.process(ctx, dir)
	}
}

// process loads and classifies the event in dir, passing it on if it holds
// an animal and deleting it otherwise. Events that cannot be loaded are left
// on disk.
func (p *eventPipeline) process(ctx context.Context, dir string) {
	d, err := p.loader.Load(dir)
	if err != nil {
		p.log.Error("could not load event, skipping", "dir", dir, "error", err.Error())
		return
	}
	if len(d.RawFrames) == 0 {
		p.log.Warning("event has no raw frames, deleting", "dir", dir)
		p.delete(dir)
		return
	}

	keep, err := p.classify(d)
	if err != nil {
		p.log.Error("could not classify event, leaving on disk", "dir", dir, "error", err.Error())
		return
	}
	if !keep {
		p.log.Info("no animal detected, deleting event", "dir", dir)
		p.delete(dir)
		return
	}

	p.log.Info("animal detected, keeping event", "dir", dir, "frames", len(d.RawFrames))
	select {
	case p.out <- Item{Event: d, Sensor: sensorLog(p.logs, d.StartTimestamp)}:
	case <-ctx.Done():
		p.log.Warning("kept event not collected before stop", "dir", dir)
	}
}

// classify reports whether the event d holds an animal. Frames are
// classified in spiral order; a human detection means the event is not kept.
// Frames that cannot be classified are skipped. An error is returned only if
// the classifier has no network, when no decision can be made.
func (p *eventPipeline) classify(d *event.Data) (bool, error) {
	for _, i := range spiral(len(d.RawFrames), p.fraction) {
		animal, human, err := p.cls.Run(d.RawFrames[i], p.format)
		if errors.Is(err, classify.ErrNoModel) {
			return false, err
		}
		if err != nil {
			p.log.Error("could not classify frame", "dir", d.Dir, "index", i, "error", err.Error())
			continue
		}
		if human {
			p.log.Info("human detected", "dir", d.Dir, "index", i)
			return false, nil
		}
		if animal {
			return true, nil
		}
	}
	return false, nil
}

// spiral returns the indices of the frames of an n frame event to classify,
// in order. A fraction of zero or less selects the middle frame alone.
// Otherwise round(n*fraction) evenly spaced frames are selected and ordered
// by their distance from the middle frame.
func spiral(n int, fraction float64) []int {
	if n == 0 {
		return nil
	}
	middle := n / 2
	if fraction <= 0 {
		return []int{middle}
	}

	var pts []float64
	switch k := int(math.RoundToEven(float64(n) * fraction)); k {
	case 0:
		return nil
	case 1:
		pts = []float64{0}
	default:
		pts = floats.Span(make([]float64, k), 0, float64(n-1))
	}

	idx := make([]int, len(pts))
	for i, v := range pts {
		idx[i] = int(math.RoundToEven(v))
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return dist(middle, idx[i]) < dist(middle, idx[j])
	})
	return idx
}

func dist(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// delete removes the event directory dir. Only directories named as events
// are removed.
func (p *eventPipeline) delete(dir string) {
	if !strings.HasPrefix(filepath.Base(dir), event.Prefix) {
		p.log.Warning("not an event directory, not deleting", "dir", dir)
		return
	}
	err := os.RemoveAll(dir)
	if err != nil {
		p.log.Error("could not delete event", "dir", dir, "error", err.Error())
	}
}

func (p *eventPipeline) get(ctx context.Context) (Item, error) {
	select {
	case it, ok := <-p.out:
		if !ok {
			return Item{}, ErrNotRunning
		}
		return it, nil
	case <-ctx.Done():
		return Item{}, ctx.Err()
	}
}

func (p *eventPipeline) close() error { return p.analyser.Close() }

func (p *eventPipeline) bitrate() int { return p.set.Bitrate() }
