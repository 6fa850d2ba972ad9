/*
DESCRIPTION
  settings.go provides loading and watching of the local settings file, a
  JSON object of config variable names to values used when running offline.

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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/utils/logging"
)

// loadSettings returns the variables held in the settings file at path.
// Numbers and booleans are converted to their string form.
func loadSettings(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	err = json.Unmarshal(b, &raw)
	if err != nil {
		return nil, fmt.Errorf("could not parse settings: %w", err)
	}
	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			vars[k] = v
		case float64:
			vars[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			vars[k] = strconv.FormatBool(v)
		default:
			return nil, fmt.Errorf("unsupported value for %s: %v", k, v)
		}
	}
	return vars, nil
}

// watchSettings calls apply with the contents of the settings file at path
// each time it is written, until ctx is cancelled. The directory is watched
// so that files replaced by rename are seen.
func watchSettings(ctx context.Context, path string, apply func(map[string]string), l logging.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}
	defer w.Close()

	err = w.Add(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("could not watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			vars, err := loadSettings(path)
			if err != nil {
				l.Warning("could not load changed settings", "path", path, "error", err.Error())
				continue
			}
			l.Info("settings changed", "path", path)
			apply(vars)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Error("settings watcher error", "error", err.Error())
		}
	}
}
