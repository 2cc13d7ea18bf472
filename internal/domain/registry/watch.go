package registry

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSeedDebounce coalesces bursts of file events into one seeding run
const DefaultSeedDebounce = time.Second

// Watch re-runs Seed after files under the seed directory change, until ctx
// is done. Directories created later are watched too. Seeding stays
// additive: removing a manifest never removes layers.
func (s *Seeder) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultSeedDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create seed watcher: %w", err)
	}
	defer w.Close()

	if err := s.watchTree(w, s.dir); err != nil {
		return err
	}
	s.logger.Info("Watching seed directory", zap.String("dir", s.dir))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := s.watchTree(w, event.Name); err != nil {
						s.logger.Warn("Failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
				}
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if _, err := s.Seed(ctx); err != nil {
				s.logger.Warn("Re-seeding failed", zap.Error(err))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Seed watcher error", zap.Error(err))
		}
	}
}

// watchTree adds root and every directory below it to w
func (s *Seeder) watchTree(w *fsnotify.Watcher, root string) error {
	var (
		mu   sync.Mutex
		dirs []string
	)
	err := fastwalk.Walk(&fastwalk.Config{Follow: false}, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			mu.Lock()
			dirs = append(dirs, path)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk seed directory %s: %w", root, err)
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return nil
}
