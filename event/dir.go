/*
DESCRIPTION
  dir.go provides DirMaker for allocating event directories and Recover for
  finding the events left on disk by a previous run.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package event segments the live motion stream into events, persists each
// event as a directory of stream files and loads those directories back for
// classification.
package event

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ausocean/camtrap/buffer"
)

// Prefix is the base name prefix of every event directory.
const Prefix = "event_"

// DirMaker allocates uniquely named event directories within a base
// directory.
type DirMaker struct {
	base string

	mu sync.Mutex
	n  int
}

// NewDirMaker returns a DirMaker creating event directories in base. The
// base directory is created if it does not exist, and numbering starts after
// the highest numbered event already present.
func NewDirMaker(base string) (*DirMaker, error) {
	err := os.MkdirAll(base, 0755)
	if err != nil {
		return nil, fmt.Errorf("could not create event base directory: %w", err)
	}
	events, err := list(base)
	if err != nil {
		return nil, err
	}
	d := &DirMaker{base: base}
	if len(events) != 0 {
		d.n = events[len(events)-1].n + 1
	}
	return d, nil
}

// Next creates and returns the path of a new event directory.
func (d *DirMaker) Next() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		path := filepath.Join(d.base, Prefix+strconv.Itoa(d.n))
		d.n++
		err := os.Mkdir(path, 0755)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("could not create event directory: %w", err)
		}
		return path, nil
	}
}

type numbered struct {
	path string
	n    int
}

// list returns the event directories in base ordered by number.
func list(base string) ([]numbered, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("could not read event base directory: %w", err)
	}
	var events []numbered
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), Prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), Prefix))
		if err != nil || n < 0 {
			continue
		}
		events = append(events, numbered{path: filepath.Join(base, e.Name()), n: n})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].n < events[j].n })
	return events, nil
}

// Recover returns the event directories in base that hold raw frames,
// oldest first. These are events whose classification was interrupted by a
// previous shutdown.
func Recover(base string) ([]string, error) {
	events, err := list(base)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range events {
		fi, err := os.Stat(filepath.Join(e.path, buffer.RawFile))
		if err != nil || fi.Size() == 0 {
			continue
		}
		dirs = append(dirs, e.path)
	}
	return dirs, nil
}
