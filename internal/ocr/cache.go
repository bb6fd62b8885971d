package ocr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
)

// LoadCache merges the cache file at path into the in-memory cache.
// A missing file is not an error.
func (d *Decoder) LoadCache(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		d.logger.Debug("no ocr cache file yet", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read ocr cache: %w", err)
	}

	loaded := make(map[string]string)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to decode ocr cache %s: %w", path, err)
	}

	d.mu.Lock()
	maps.Copy(d.cache, loaded)
	size := len(d.cache)
	d.mu.Unlock()

	d.logger.Info("ocr cache loaded", "path", path, "entries", size)
	return nil
}

// SaveCache writes the whole cache to path, replacing the previous file.
// The file is written to a temporary name first so an interrupted save never
// leaves a truncated cache behind.
func (d *Decoder) SaveCache(path string) error {
	d.mu.Lock()
	data, err := json.MarshalIndent(d.cache, "", "  ")
	size := len(d.cache)
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode ocr cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create ocr cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ocr-cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("failed to write ocr cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ocr cache: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace ocr cache: %w", err)
	}

	d.mu.Lock()
	d.dirty = false
	d.mu.Unlock()

	d.logger.Info("ocr cache saved", "path", path, "entries", size)
	return nil
}

// Dirty reports whether the cache gained entries since the last save.
func (d *Decoder) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}
