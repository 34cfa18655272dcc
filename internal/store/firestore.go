package store

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dograga/compliance-checks/internal/domain"
)

// FirestoreStore persists records in a Firestore collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	logger     *slog.Logger
}

var _ domain.RecordStore = (*FirestoreStore)(nil)

// NewFirestoreStore connects to Firestore using Application Default
// Credentials. database selects a named database; empty means "(default)".
func NewFirestoreStore(ctx context.Context, projectID, database, collection string, logger *slog.Logger) (*FirestoreStore, error) {
	var (
		client *firestore.Client
		err    error
	)
	if database != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	return &FirestoreStore{
		client:     client,
		collection: collection,
		logger:     logger.With("component", "firestore-store"),
	}, nil
}

// Close releases the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// Put writes a record, generating a document ID when rec.DocID is empty.
func (s *FirestoreStore) Put(ctx context.Context, rec *domain.Record) error {
	coll := s.client.Collection(s.collection)
	ref := coll.NewDoc()
	if rec.DocID != "" {
		ref = coll.Doc(rec.DocID)
	}
	if _, err := ref.Set(ctx, toStored(rec)); err != nil {
		return fmt.Errorf("write document %s: %w", ref.ID, err)
	}
	rec.DocID = ref.ID
	return nil
}

// Get fetches a record by document ID.
func (s *FirestoreStore) Get(ctx context.Context, docID string) (*domain.Record, error) {
	snap, err := s.client.Collection(s.collection).Doc(docID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrNotFound("record %s not found", docID)
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", docID, err)
	}
	var sr storedRecord
	if err := snap.DataTo(&sr); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", docID, err)
	}
	rec := fromStored(snap.Ref.ID, sr)
	return &rec, nil
}

// List returns records matching the filter, newest first. Filtering on
// equality fields is pushed down to Firestore; pagination happens here so
// the response can carry a total count.
func (s *FirestoreStore) List(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, int64, error) {
	q := s.client.Collection(s.collection).Query
	if filter.ProjectID != "" {
		q = q.Where("project_id", "==", filter.ProjectID)
	}
	if scope := filter.ParentScope(); scope != "" {
		q = q.Where("parent_scope", "==", scope)
	}
	if filter.AssetType != "" {
		q = q.Where("asset_type", "==", filter.AssetType)
	}

	var recs []domain.Record
	it := q.Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("list documents: %w", err)
		}
		var sr storedRecord
		if err := snap.DataTo(&sr); err != nil {
			return nil, 0, fmt.Errorf("decode document %s: %w", snap.Ref.ID, err)
		}
		recs = append(recs, fromStored(snap.Ref.ID, sr))
	}

	sortRecords(recs)
	page, total := pageSlice(recs, filter.Page)
	return page, total, nil
}

// Delete removes a record by document ID.
func (s *FirestoreStore) Delete(ctx context.Context, docID string) error {
	ref := s.client.Collection(s.collection).Doc(docID)
	if _, err := ref.Get(ctx); status.Code(err) == codes.NotFound {
		return domain.ErrNotFound("record %s not found", docID)
	} else if err != nil {
		return fmt.Errorf("read document %s: %w", docID, err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	return nil
}

// DeleteByScope removes every record whose parent scope matches.
func (s *FirestoreStore) DeleteByScope(ctx context.Context, parentScope string) (int64, error) {
	it := s.client.Collection(s.collection).Where("parent_scope", "==", parentScope).Documents(ctx)
	defer it.Stop()

	var deleted int64
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("list documents for scope %s: %w", parentScope, err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return deleted, fmt.Errorf("delete document %s: %w", snap.Ref.ID, err)
		}
		deleted++
	}
	s.logger.Info("deleted records by scope", "parent_scope", parentScope, "count", deleted)
	return deleted, nil
}
