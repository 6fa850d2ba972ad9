/*
DESCRIPTION
  sensor.go provides the sensor reading types and Logs, a store of sensor
  logs looked up by the timestamp of a captured frame.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sensor provides logging of environmental readings from a urSense
// sensor board and lookup of the log taken closest to a given time.
package sensor

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/ausocean/utils/logging"
)

// Reading is a single sensor reading. Value holds a number for most
// readings; GPS time is held as text.
type Reading struct {
	Value interface{} `json:"value"`
	Units string      `json:"units,omitempty"`
}

// Log is the set of readings taken at one time.
type Log struct {
	SystemTime float64 // Seconds since the Unix epoch.
	Readings   map[string]Reading
}

// MarshalJSON implements json.Marshaler. The system time is encoded as a
// reading named system_time in seconds, alongside the other readings.
func (l *Log) MarshalJSON() ([]byte, error) {
	m := make(map[string]Reading, len(l.Readings)+1)
	for k, v := range l.Readings {
		m[k] = v
	}
	m["system_time"] = Reading{Value: l.SystemTime, Units: "s"}
	return json.Marshal(m)
}

// Logs holds sensor logs in time order. Logs is safe for concurrent use.
type Logs struct {
	mu   sync.Mutex
	logs []*Log
	log  logging.Logger
}

// NewLogs returns a new, empty Logs.
func NewLogs(l logging.Logger) *Logs {
	return &Logs{log: l}
}

// Add stores l. Logs are expected to be added in time order; a log older
// than the newest held is inserted in place.
func (s *Logs) Add(l *Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.logs), func(i int) bool { return s.logs[i].SystemTime > l.SystemTime })
	s.logs = append(s.logs, nil)
	copy(s.logs[i+1:], s.logs[i:])
	s.logs[i] = l
}

// Len returns the number of logs held.
func (s *Logs) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// Get returns the log closest in time to ts. A timestamp at or past the
// midpoint between two logs is matched to the later log. Logs older than
// the returned log are removed, as frames are looked up in time order.
// False is returned if there are no logs.
func (s *Logs) Get(ts float64) (*Log, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logs) == 0 {
		return nil, false
	}

	i := s.closest(ts)
	if i > 0 {
		s.log.Debug("removing old sensor logs", "count", i, "remaining", len(s.logs)-i)
		s.logs = append(s.logs[:0], s.logs[i:]...)
	}
	return s.logs[0], true
}

// closest returns the index of the log closest to ts. s.mu must be held.
func (s *Logs) closest(ts float64) int {
	i := sort.Search(len(s.logs), func(i int) bool { return s.logs[i].SystemTime >= ts })
	switch {
	case i == 0:
		return 0
	case i == len(s.logs):
		return i - 1
	}
	mean := (s.logs[i-1].SystemTime + s.logs[i].SystemTime) / 2
	if ts >= mean {
		return i
	}
	return i - 1
}
