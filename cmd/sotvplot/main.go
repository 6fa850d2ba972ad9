/*
DESCRIPTION
  sotvplot plots the motion scores of a recorded event. Scores stored with
  the event's motion records are plotted alongside scores recomputed with a
  given motion filter configuration, to help tune the filter.

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
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/camtrap/buffer"
	"github.com/ausocean/camtrap/codec/mvec"
	"github.com/ausocean/camtrap/filter"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/utils/logging"
)

// Logging configuration.
const (
	logLevel    = logging.Info
	logSuppress = true
)

// Plot size.
const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 4 * vg.Inch
)

func main() {
	var (
		dirPtr        = flag.String("event", "", "event directory holding the motion records")
		outPtr        = flag.String("out", "sotv.png", "output plot file; format is chosen by extension")
		configFilePtr = flag.String("config-file", "", "JSON file of config variables for the motion filter")
	)
	flag.Parse()

	log := logging.New(logLevel, os.Stdout, logSuppress)

	if *dirPtr == "" {
		log.Fatal("no event directory given")
	}

	c := config.Config{Logger: log}
	if *configFilePtr != "" {
		b, err := os.ReadFile(*configFilePtr)
		if err != nil {
			log.Fatal("could not read config file", "error", err.Error())
		}
		var vars map[string]string
		err = json.Unmarshal(b, &vars)
		if err != nil {
			log.Fatal("could not parse config file", "error", err.Error())
		}
		c.Update(vars)
	}
	err := c.Validate()
	if err != nil {
		log.Fatal("invalid config", "error", err.Error())
	}

	recs, err := readRecords(filepath.Join(*dirPtr, buffer.MotionFile), mvec.DimsFor(int(c.Width), int(c.Height)))
	if err != nil {
		log.Fatal("could not read motion records", "error", err.Error())
	}
	if len(recs) == 0 {
		log.Fatal("event has no motion records")
	}
	log.Info("read motion records", "records", len(recs))

	s := filter.NewSoTV(filter.SoTVConfig{
		SmallThreshold: c.SmallThreshold,
		Threshold:      c.SoTVThreshold,
		Cutoff:         c.IIRCutoff,
		Order:          int(c.IIROrder),
		Attenuation:    c.IIRAttenuation,
	}, float64(c.FrameRate), log)

	p, err := scorePlot(recs, s)
	if err != nil {
		log.Fatal("could not create plot", "error", err.Error())
	}
	err = p.Save(plotWidth, plotHeight, *outPtr)
	if err != nil {
		log.Fatal("could not save plot", "error", err.Error())
	}
	log.Info("plot saved", "path", *outPtr)
}

// readRecords returns the motion records held in the file at path.
func readRecords(path string, d mvec.Dims) ([]mvec.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	size := d.RecordSize()
	if len(b)%size != 0 {
		return nil, fmt.Errorf("motion file length %d is not a multiple of record size %d", len(b), size)
	}
	recs := make([]mvec.Record, 0, len(b)/size)
	for i := 0; i < len(b); i += size {
		r, err := mvec.ParseRecord(b[i : i+size])
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// scorePlot returns a plot of the recorded and recomputed scores of recs
// against time from the first record, with the motion threshold of s.
func scorePlot(recs []mvec.Record, s *filter.SoTV) (*plot.Plot, error) {
	var recorded, computed plotter.XYs
	t0 := recs[0].Timestamp
	for _, r := range recs {
		t := r.Timestamp - t0
		if r.Score != mvec.NotScored {
			recorded = append(recorded, plotter.XY{X: t, Y: r.Score})
		}
		computed = append(computed, plotter.XY{X: t, Y: s.Score(r.Vectors)})
	}

	p := plot.New()
	p.Title.Text = "SoTV motion score"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Score"

	comp, err := plotter.NewLine(computed)
	if err != nil {
		return nil, err
	}
	p.Add(comp)
	p.Legend.Add("computed", comp)

	if len(recorded) != 0 {
		rec, err := plotter.NewScatter(recorded)
		if err != nil {
			return nil, err
		}
		p.Add(rec)
		p.Legend.Add("recorded", rec)
	}

	thresh := plotter.NewFunction(func(float64) float64 { return s.Threshold() })
	thresh.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(thresh)
	p.Legend.Add("threshold", thresh)
	return p, nil
}
