package exchange

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitrijs2005/passkeeper/internal/common"
)

// WaitForSealedBox blocks until a complete sealed box file appears in dir
// or ctx is done, and returns its path. The directory itself is watched, not
// a specific name, because the exporting party picks the file name. A file
// that does not decode yet is treated as still being written; the next
// write event triggers another attempt.
func WaitForSealedBox(ctx context.Context, dir string) (string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("cannot create directory watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return "", fmt.Errorf("cannot watch directory %s: %w", dir, err)
	}

	// The box may have landed before the watch was in place.
	if path, ok := findSealedBox(dir); ok {
		return path, nil
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return "", fmt.Errorf("directory watcher closed")
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if strings.HasSuffix(event.Name, common.SealedBoxFileExt) && boxComplete(event.Name) {
				return event.Name, nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return "", fmt.Errorf("directory watcher closed")
			}
			return "", fmt.Errorf("directory watcher failed: %w", err)
		}
	}
}

func findSealedBox(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), common.SealedBoxFileExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if boxComplete(path) {
			return path, true
		}
	}
	return "", false
}

// boxComplete reports whether the file at path decodes as a sealed box.
// A file that is still being flushed by the writer does not.
func boxComplete(path string) bool {
	_, err := LoadSealedBox(path)
	return err == nil
}
