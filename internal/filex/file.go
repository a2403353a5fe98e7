// Package filex contains small filesystem helpers for exchange directories.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) if it does not exist yet.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ExchangeDir resolves the directory an exchange path refers to. A path with
// an extension is treated as a file inside the exchange directory; a bare
// path is the directory itself.
func ExchangeDir(path string) string {
	if filepath.Ext(path) != "" {
		dir := filepath.Dir(path)
		if dir == "" {
			return "."
		}
		return dir
	}
	return path
}
