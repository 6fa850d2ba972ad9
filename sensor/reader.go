/*
DESCRIPTION
  reader.go provides Reader, which periodically triggers a urSense board
  and stores the readings it returns.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sensor

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/ausocean/utils/logging"
)

// trigger is written to a urSense board to request its newest readings.
var trigger = []byte("e")

// Delay before the first reading.
const firstRead = 100 * time.Millisecond

// Reader reads a urSense board through port. The port is expected to
// return io.EOF, or another error, once no more data is waiting.
type Reader struct {
	port     io.ReadWriter
	parser   *Parser
	logs     *Logs
	interval time.Duration
	log      logging.Logger
	now      func() time.Time
}

// NewReader returns a new Reader adding a log to logs every interval.
func NewReader(port io.ReadWriter, p *Parser, logs *Logs, interval time.Duration, l logging.Logger) *Reader {
	return &Reader{
		port:     port,
		parser:   p,
		logs:     logs,
		interval: interval,
		log:      l,
		now:      time.Now,
	}
}

// Read triggers the board and returns a log of the newest line it printed.
// If the board does not respond, or its response cannot be parsed, the log
// holds no readings.
func (r *Reader) Read() *Log {
	l := &Log{SystemTime: float64(r.now().UnixNano()) / 1e9, Readings: map[string]Reading{}}

	_, err := r.port.Write(trigger)
	if err != nil {
		r.log.Warning("could not trigger sensor board", "error", err.Error())
		return l
	}

	var line string
	s := bufio.NewScanner(r.port)
	for s.Scan() {
		if t := s.Text(); t != "" {
			line = t
		}
	}
	if line == "" {
		r.log.Debug("no response from sensor board")
		return l
	}

	readings, err := r.parser.Parse(line)
	if err != nil {
		r.log.Debug("could not parse sensor line", "line", line, "error", err.Error())
		return l
	}
	l.Readings = readings
	return l
}

// Run reads the board every interval until ctx is cancelled, adding each log
// to the Reader's Logs.
func (r *Reader) Run(ctx context.Context) {
	t := time.NewTimer(firstRead)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("sensor reader stopping")
			return
		case <-t.C:
		}
		l := r.Read()
		r.logs.Add(l)
		r.log.Debug("sensor log taken", "readings", len(l.Readings))
		t.Reset(r.interval)
	}
}
