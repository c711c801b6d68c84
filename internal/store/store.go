// Package store persists campaign results as a two-level JSON document.
//
// On disk the document maps the independent variable (as text) to an object
// mapping worker counts (as text) to average seconds:
//
//	{
//	    "1000": {
//	        "1": 0.52,
//	        "2": 0.27
//	    }
//	}
//
// Every save replaces the whole file through a rename, so a concurrent
// reader sees either the old document or the new one.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ReadError reports a results file that exists but cannot be decoded.
type ReadError struct {
	Path    string
	Wrapped error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("store: read %s: %v", e.Path, e.Wrapped)
}

func (e *ReadError) Unwrap() error {
	return e.Wrapped
}

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the table. A missing file is an empty table.
func (s *Store) Load() (Table, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Table{}, nil
		}
		return nil, &ReadError{Path: s.path, Wrapped: err}
	}

	t, err := decode(data)
	if err != nil {
		return nil, &ReadError{Path: s.path, Wrapped: err}
	}
	return t, nil
}

// Save writes t in full, replacing the previous file atomically.
func (s *Store) Save(t Table) error {
	data, err := encode(t)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("store: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("store: chmod %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("store: replace %s: %w", s.path, err)
	}
	return nil
}

// RecordPoint merges one averaged point into whatever the file holds.
func (s *Store) RecordPoint(key Key, v float64) (Table, error) {
	t, err := s.Load()
	if err != nil {
		return nil, err
	}
	t = t.Put(key, v)
	if err := s.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

// encoding/json writes int map keys as decimal strings and parses them
// back, rejecting anything that is not an integer.
func decode(data []byte) (Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty document")
	}

	var raw map[int]map[int]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("document is null")
	}

	t := make(Table, len(raw))
	for v, inner := range raw {
		if inner == nil {
			inner = make(map[int]float64)
		}
		t[v] = inner
	}
	return t, nil
}

func encode(t Table) ([]byte, error) {
	if t == nil {
		t = Table{}
	}
	data, err := json.MarshalIndent(map[int]map[int]float64(t), "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
