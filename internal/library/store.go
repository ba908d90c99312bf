// Package library persists the catalog's track list as a JSON document.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// document is the on-disk layout: {"tracks":[{"path":"..."}]}.
type document struct {
	Tracks []entry `json:"tracks"`
}

type entry struct {
	Path string `json:"path"`
}

// FileStore reads and writes the track list at Path.
type FileStore struct {
	Path string
}

// Load returns the saved paths. found is false when the file does not exist.
func (s FileStore) Load() ([]string, bool, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", s.Path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	paths := make([]string, 0, len(doc.Tracks))
	for _, e := range doc.Tracks {
		if e.Path != "" {
			paths = append(paths, e.Path)
		}
	}
	return paths, true, nil
}

// Save replaces the file with paths. The write goes through a temporary file
// in the same directory so a crash never leaves a truncated document.
func (s FileStore) Save(paths []string) error {
	doc := document{Tracks: make([]entry, len(paths))}
	for i, p := range paths {
		doc.Tracks[i] = entry{Path: p}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return fmt.Errorf("save %s: %w", s.Path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", s.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", s.Path, err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("save %s: %w", s.Path, err)
	}
	return nil
}
