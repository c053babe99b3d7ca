// Package buffer persists undelivered readings in a single durable file: an
// indented JSON array, oldest reading first, absent whenever the queue is
// empty.
package buffer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"sensor-simulator/internal/model"
)

// Store is the offline queue. Writes are whole-file overwrites; the file is
// exclusively owned by the delivery coordinator and resync pass, so no
// locking is layered on top. Storage failures are logged with enough context
// to diagnose and otherwise treated as no-ops: a lost reading is
// acknowledged, never fatal.
type Store struct {
	path string
	log  *zap.Logger
}

func NewStore(path string, log *zap.Logger) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("offline buffer path %q: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("offline buffer dir: %w", err)
	}
	return &Store{path: abs, log: log}, nil
}

func (s *Store) Path() string { return s.path }

// Append reads the current contents, appends r and writes the whole array
// back.
func (s *Store) Append(r model.Reading) error {
	readings := append(s.Drain(), r)
	return s.write(readings)
}

// Drain returns the buffered readings in order. A missing, empty or
// unparsable file reads as empty; unparsable content is discarded by the
// next write.
func (s *Store) Drain() []model.Reading {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logStorageError("read offline buffer", err)
		}
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var readings []model.Reading
	if err := json.Unmarshal(data, &readings); err != nil {
		s.log.Warn("offline buffer unparsable, treating as empty",
			zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return readings
}

// Replace overwrites the buffer with exactly rs, preserving order. An empty
// rs deletes the file.
func (s *Store) Replace(rs []model.Reading) error {
	if len(rs) == 0 {
		err := os.Remove(s.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logStorageError("remove offline buffer", err)
			return err
		}
		return nil
	}
	return s.write(rs)
}

// Len reports how many readings are currently buffered.
func (s *Store) Len() int { return len(s.Drain()) }

func (s *Store) write(rs []model.Reading) error {
	data, err := json.MarshalIndent(rs, "", "    ")
	if err != nil {
		s.logStorageError("encode offline buffer", err)
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logStorageError("write offline buffer", err)
		return err
	}
	return nil
}

func (s *Store) logStorageError(op string, err error) {
	cwd, _ := os.Getwd()
	s.log.Error(op+" failed",
		zap.String("path", s.path),
		zap.String("cwd", cwd),
		zap.Error(err))
}
