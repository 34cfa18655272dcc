package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/dograga/compliance-checks/internal/domain"
)

// LocalStore is a JSON-file-backed record store for development and tests.
// The whole document set is held in memory and rewritten on every mutation.
type LocalStore struct {
	mu     sync.RWMutex
	path   string
	docs   map[string]storedRecord
	logger *slog.Logger
}

var _ domain.RecordStore = (*LocalStore)(nil)

// NewLocalStore opens (or creates) the JSON file at path.
func NewLocalStore(path string, logger *slog.Logger) (*LocalStore, error) {
	s := &LocalStore{
		path:   path,
		docs:   make(map[string]storedRecord),
		logger: logger.With("component", "local-store"),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open local db %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.docs); err != nil {
			return nil, fmt.Errorf("parse local db %s: %w", path, err)
		}
	}
	return s, nil
}

// Close flushes nothing; mutations are persisted eagerly.
func (s *LocalStore) Close() error { return nil }

// flush writes the document map atomically via a temp file rename.
// Caller must hold the write lock.
func (s *LocalStore) flush() error {
	data, err := json.MarshalIndent(s.docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local db: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write local db: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace local db: %w", err)
	}
	return nil
}

// Put writes a record, generating a document ID when rec.DocID is empty.
func (s *LocalStore) Put(_ context.Context, rec *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.DocID == "" {
		rec.DocID = uuid.NewString()
	}
	s.docs[rec.DocID] = toStored(rec)
	return s.flush()
}

// Get fetches a record by document ID.
func (s *LocalStore) Get(_ context.Context, docID string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.docs[docID]
	if !ok {
		return nil, domain.ErrNotFound("record %s not found", docID)
	}
	rec := fromStored(docID, sr)
	return &rec, nil
}

// List returns records matching the filter, newest first.
func (s *LocalStore) List(_ context.Context, filter domain.RecordFilter) ([]domain.Record, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []domain.Record
	for id, sr := range s.docs {
		rec := fromStored(id, sr)
		if matchesFilter(rec, filter) {
			recs = append(recs, rec)
		}
	}
	sortRecords(recs)
	page, total := pageSlice(recs, filter.Page)
	return page, total, nil
}

// Delete removes a record by document ID.
func (s *LocalStore) Delete(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		return domain.ErrNotFound("record %s not found", docID)
	}
	delete(s.docs, docID)
	return s.flush()
}

// DeleteByScope removes every record whose parent scope matches.
func (s *LocalStore) DeleteByScope(_ context.Context, parentScope string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, sr := range s.docs {
		if sr.ParentScope == parentScope {
			delete(s.docs, id)
			deleted++
		}
	}
	if deleted > 0 {
		if err := s.flush(); err != nil {
			return deleted, err
		}
		s.logger.Info("deleted records by scope", "parent_scope", parentScope, "count", deleted)
	}
	return deleted, nil
}
