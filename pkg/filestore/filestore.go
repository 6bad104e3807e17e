// Package filestore persists a whole collection as one JSON array in a local file.
//
// Every mutation rewrites the file, so Append is O(n) in the number of stored
// records. That is fine for a sign-up list of a few thousand entries and nothing
// beyond it; deployments that outgrow it should configure the document store.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/akeren/waitlist-api/internal/log"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/gofrs/flock"
)

// Store owns the backing file. Operations are serialized in-process by a mutex and
// across processes by an advisory lock on "<path>.lock".
type Store[T any] struct {
	path   string
	logger *log.Logger

	mu   sync.Mutex
	lock *flock.Flock
}

func New[T any](path string, logger *log.Logger) *Store[T] {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Store[T]{
		path:   path,
		logger: logger,
		lock:   flock.New(path + ".lock"),
	}
}

func (s *Store[T]) Path() string {
	return s.path
}

// Load returns every stored record. A missing file is an empty collection, and so is
// a file whose content cannot be parsed: the problem is logged and the caller keeps
// serving.
func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	var records []T

	err := s.withLock(ctx, func() error {
		var loadErr error
		records, loadErr = s.load(ctx)
		return loadErr
	})

	return records, err
}

// Save replaces the whole collection.
func (s *Store[T]) Save(ctx context.Context, records []T) error {
	return s.withLock(ctx, func() error {
		return s.save(records)
	})
}

func (s *Store[T]) Append(ctx context.Context, record T) error {
	return s.withLock(ctx, func() error {
		records, err := s.load(ctx)
		if err != nil {
			return err
		}

		return s.save(append(records, record))
	})
}

func (s *Store[T]) Count(ctx context.Context) (int64, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}

	return int64(len(records)), nil
}

// Clear empties the collection and reports how many records it held.
func (s *Store[T]) Clear(ctx context.Context) (int64, error) {
	var removed int64

	err := s.withLock(ctx, func() error {
		records, err := s.load(ctx)
		if err != nil {
			return err
		}

		if err := s.save([]T{}); err != nil {
			return err
		}

		removed = int64(len(records))
		return nil
	})

	return removed, err
}

func (s *Store[T]) withLock(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewDatabaseError("file store operation cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Error("Failed to create file store directory", "path", s.path, "error", err)
		return apperrors.NewDatabaseError("unable to prepare storage directory", err)
	}

	if err := s.lock.Lock(); err != nil {
		s.logger.Error("Failed to acquire file store lock", "path", s.lock.Path(), "error", err)
		return apperrors.NewDatabaseError("unable to lock storage file", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("Failed to release file store lock", "path", s.lock.Path(), "error", err)
		}
	}()

	return fn()
}

func (s *Store[T]) load(ctx context.Context) ([]T, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		logger.Error("Failed to read file store", "path", s.path, "error", err)
		return nil, apperrors.NewDatabaseError("unable to read storage file", err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Error("File store content is malformed; treating it as empty", "path", s.path, "bytes", len(data), "error", err)
		return []T{}, nil
	}

	if records == nil {
		records = []T{}
	}

	return records, nil
}

// save writes a temp file next to the target and renames it into place, so a crash
// mid-write leaves either the old or the new array on disk.
func (s *Store[T]) save(records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperrors.NewDatabaseError("unable to encode records", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		s.logger.Error("Failed to create temp file", "path", s.path, "error", err)
		return apperrors.NewDatabaseError("unable to write storage file", err)
	}
	tmpPath := tmp.Name()

	if err := writeAndSync(tmp, data); err != nil {
		_ = os.Remove(tmpPath)
		s.logger.Error("Failed to write file store", "path", s.path, "error", err)
		return apperrors.NewDatabaseError("unable to write storage file", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		s.logger.Error("Failed to replace file store", "path", s.path, "error", err)
		return apperrors.NewDatabaseError("unable to write storage file", err)
	}

	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	return f.Close()
}
