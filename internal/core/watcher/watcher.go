// Package watcher reports changes to the Composer files of a project
// directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nightconcept/pkgconn/internal/core/lockfile"
	"github.com/nightconcept/pkgconn/internal/core/manifest"
)

// DefaultDelay is how long Watch waits for a burst of events to settle.
const DefaultDelay = 100 * time.Millisecond

// ErrPathNotExist is returned when the watched directory is missing.
var ErrPathNotExist = errors.New("path does not exist")

// IsProjectFile reports whether path names composer.json or composer.lock.
func IsProjectFile(path string) bool {
	switch filepath.Base(path) {
	case manifest.FileName, lockfile.LockfileName:
		return true
	}
	return false
}

// Watch watches dir until ctx is done. Each burst of changes to the project
// files is coalesced into one call of onChange with the sorted base names
// that changed. The directory itself is watched so editors that replace
// files by rename are seen too. onChange runs on the calling goroutine.
func Watch(ctx context.Context, dir string, delay time.Duration, onChange func(names []string)) error {
	if delay <= 0 {
		delay = DefaultDelay
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to watch %s: not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// Attribute-only events are kept: an mtime change moves the
			// fingerprint even when the content is untouched.
			if !IsProjectFile(ev.Name) {
				continue
			}
			pending[filepath.Base(ev.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(delay)
				fire = timer.C
			} else {
				timer.Reset(delay)
			}

		case <-fire:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			clear(pending)
			timer, fire = nil, nil
			onChange(names)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("failed while watching %s: %w", dir, err)
		}
	}
}
