package guidance

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/founderloop/compass/internal/logging"
)

// Watch reloads the store whenever a YAML file in the override directory
// changes. Blocks until ctx is cancelled. Events are debounced so a burst
// of writes (editor save, rsync) triggers one reload.
func (s *Store) Watch(ctx context.Context, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	var debounce *time.Timer
	reload := func() {
		if err := s.Reload(); err != nil {
			logging.Errorf("guidance reload failed: %v", err)
			return
		}
		logging.Infof("guidance reloaded: %d records", s.Count())
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".yaml") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("guidance watcher: %v", err)
		}
	}
}
