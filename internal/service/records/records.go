// Package records exposes read and delete operations over stored
// compliance records.
package records

import (
	"context"
	"log/slog"

	"github.com/dograga/compliance-checks/internal/domain"
)

// Service answers queries against the record store.
type Service struct {
	store  domain.RecordStore
	logger *slog.Logger
}

// NewService creates a records service backed by the given store.
func NewService(store domain.RecordStore, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With("component", "records"),
	}
}

// List returns records matching the filter plus the total match count.
// Folder and organization filters are mutually exclusive because each
// maps to a distinct parent scope.
func (s *Service) List(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, int64, error) {
	if filter.FolderID != "" && filter.OrgID != "" {
		return nil, 0, domain.ErrValidation("folder_id and org_id filters cannot be combined")
	}
	return s.store.List(ctx, filter)
}

// Get returns a single record by document ID.
func (s *Service) Get(ctx context.Context, docID string) (*domain.Record, error) {
	if docID == "" {
		return nil, domain.ErrValidation("document ID is required")
	}
	return s.store.Get(ctx, docID)
}

// Delete removes a single record by document ID.
func (s *Service) Delete(ctx context.Context, docID string) error {
	if docID == "" {
		return domain.ErrValidation("document ID is required")
	}
	if err := s.store.Delete(ctx, docID); err != nil {
		return err
	}
	s.logger.Info("deleted record", "doc_id", docID)
	return nil
}
