package modeldef

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matthewbaird/viewcore/internal/engine"
)

// debounceWindow coalesces the burst of fsnotify events an editor save
// produces into one reload.
const debounceWindow = 250 * time.Millisecond

// Watch reloads the model definitions in dir whenever a CUE file changes and
// hands the fresh set to onChange. A reload that fails to parse keeps the
// previous definitions and logs the error. Blocks until ctx is cancelled.
func Watch(ctx context.Context, dir string, onChange func([]engine.Model)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".cue" {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			models, err := LoadDir(dir)
			if err != nil {
				log.Printf("modeldef: reload failed, keeping previous definitions: %v", err)
				continue
			}
			log.Printf("modeldef: reloaded %d model definitions from %s", len(models), dir)
			onChange(models)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("modeldef: watch error: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}
