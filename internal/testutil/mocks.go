// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"

	"github.com/dograga/compliance-checks/internal/domain"
)

// === Record Store Mock ===

// MockRecordStore implements domain.RecordStore for testing. Put collects
// the stored records for assertions when PutFn is unset.
type MockRecordStore struct {
	PutFn           func(ctx context.Context, rec *domain.Record) error
	GetFn           func(ctx context.Context, docID string) (*domain.Record, error)
	ListFn          func(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, int64, error)
	DeleteFn        func(ctx context.Context, docID string) error
	DeleteByScopeFn func(ctx context.Context, parentScope string) (int64, error)
	Stored          []domain.Record
}

var _ domain.RecordStore = (*MockRecordStore)(nil)

// Put implements the interface method for testing.
func (m *MockRecordStore) Put(ctx context.Context, rec *domain.Record) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, rec)
	}
	m.Stored = append(m.Stored, *rec)
	return nil
}

// Get implements the interface method for testing.
func (m *MockRecordStore) Get(ctx context.Context, docID string) (*domain.Record, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, docID)
	}
	panic("unexpected call to MockRecordStore.Get")
}

// List implements the interface method for testing.
func (m *MockRecordStore) List(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockRecordStore.List")
}

// Delete implements the interface method for testing.
func (m *MockRecordStore) Delete(ctx context.Context, docID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, docID)
	}
	panic("unexpected call to MockRecordStore.Delete")
}

// DeleteByScope implements the interface method for testing.
func (m *MockRecordStore) DeleteByScope(ctx context.Context, parentScope string) (int64, error) {
	if m.DeleteByScopeFn != nil {
		return m.DeleteByScopeFn(ctx, parentScope)
	}
	return 0, nil
}

// Close implements the interface method for testing.
func (m *MockRecordStore) Close() error { return nil }

// === Asset Inventory Mock ===

// MockAssetInventory implements domain.AssetInventory for testing.
type MockAssetInventory struct {
	ListIAMPoliciesFn func(ctx context.Context, scope string, assetTypes []string) ([]domain.AssetPolicy, error)
	ListResourcesFn   func(ctx context.Context, scope string, assetTypes []string) ([]domain.AssetResource, error)
}

var _ domain.AssetInventory = (*MockAssetInventory)(nil)

// ListIAMPolicies implements the interface method for testing.
func (m *MockAssetInventory) ListIAMPolicies(ctx context.Context, scope string, assetTypes []string) ([]domain.AssetPolicy, error) {
	if m.ListIAMPoliciesFn != nil {
		return m.ListIAMPoliciesFn(ctx, scope, assetTypes)
	}
	panic("unexpected call to MockAssetInventory.ListIAMPolicies")
}

// ListResources implements the interface method for testing.
func (m *MockAssetInventory) ListResources(ctx context.Context, scope string, assetTypes []string) ([]domain.AssetResource, error) {
	if m.ListResourcesFn != nil {
		return m.ListResourcesFn(ctx, scope, assetTypes)
	}
	panic("unexpected call to MockAssetInventory.ListResources")
}

// === Resource Browser Mock ===

// MockResourceBrowser implements domain.ResourceBrowser for testing.
type MockResourceBrowser struct {
	ListProjectsFn func(ctx context.Context, parent string) ([]string, error)
	ListFoldersFn  func(ctx context.Context, parent string) ([]string, error)
}

var _ domain.ResourceBrowser = (*MockResourceBrowser)(nil)

// ListProjects implements the interface method for testing.
func (m *MockResourceBrowser) ListProjects(ctx context.Context, parent string) ([]string, error) {
	if m.ListProjectsFn != nil {
		return m.ListProjectsFn(ctx, parent)
	}
	panic("unexpected call to MockResourceBrowser.ListProjects")
}

// ListFolders implements the interface method for testing.
func (m *MockResourceBrowser) ListFolders(ctx context.Context, parent string) ([]string, error) {
	if m.ListFoldersFn != nil {
		return m.ListFoldersFn(ctx, parent)
	}
	panic("unexpected call to MockResourceBrowser.ListFolders")
}

// === Storage Auditor Mock ===

// MockStorageAuditor implements domain.StorageAuditor for testing.
type MockStorageAuditor struct {
	ListBucketsFn       func(ctx context.Context, projectID string) ([]domain.BucketInfo, error)
	BucketIAMBindingsFn func(ctx context.Context, bucket string) ([]domain.IAMBinding, error)
}

var _ domain.StorageAuditor = (*MockStorageAuditor)(nil)

// ListBuckets implements the interface method for testing.
func (m *MockStorageAuditor) ListBuckets(ctx context.Context, projectID string) ([]domain.BucketInfo, error) {
	if m.ListBucketsFn != nil {
		return m.ListBucketsFn(ctx, projectID)
	}
	panic("unexpected call to MockStorageAuditor.ListBuckets")
}

// BucketIAMBindings implements the interface method for testing.
func (m *MockStorageAuditor) BucketIAMBindings(ctx context.Context, bucket string) ([]domain.IAMBinding, error) {
	if m.BucketIAMBindingsFn != nil {
		return m.BucketIAMBindingsFn(ctx, bucket)
	}
	panic("unexpected call to MockStorageAuditor.BucketIAMBindings")
}

// === Project Policy Reader Mock ===

// MockProjectPolicyReader implements domain.ProjectPolicyReader for testing.
type MockProjectPolicyReader struct {
	ProjectIAMBindingsFn func(ctx context.Context, projectID string) ([]domain.IAMBinding, error)
}

var _ domain.ProjectPolicyReader = (*MockProjectPolicyReader)(nil)

// ProjectIAMBindings implements the interface method for testing.
func (m *MockProjectPolicyReader) ProjectIAMBindings(ctx context.Context, projectID string) ([]domain.IAMBinding, error) {
	if m.ProjectIAMBindingsFn != nil {
		return m.ProjectIAMBindingsFn(ctx, projectID)
	}
	panic("unexpected call to MockProjectPolicyReader.ProjectIAMBindings")
}

// === SQL Auditor Mock ===

// MockSQLAuditor implements domain.SQLAuditor for testing.
type MockSQLAuditor struct {
	ListSQLInstancesFn func(ctx context.Context, projectID string) ([]domain.SQLInstanceInfo, error)
}

var _ domain.SQLAuditor = (*MockSQLAuditor)(nil)

// ListSQLInstances implements the interface method for testing.
func (m *MockSQLAuditor) ListSQLInstances(ctx context.Context, projectID string) ([]domain.SQLInstanceInfo, error) {
	if m.ListSQLInstancesFn != nil {
		return m.ListSQLInstancesFn(ctx, projectID)
	}
	panic("unexpected call to MockSQLAuditor.ListSQLInstances")
}

// === BigQuery Auditor Mock ===

// MockBigQueryAuditor implements domain.BigQueryAuditor for testing.
type MockBigQueryAuditor struct {
	ListDatasetAccessFn func(ctx context.Context, projectID string) ([]domain.DatasetAccess, error)
}

var _ domain.BigQueryAuditor = (*MockBigQueryAuditor)(nil)

// ListDatasetAccess implements the interface method for testing.
func (m *MockBigQueryAuditor) ListDatasetAccess(ctx context.Context, projectID string) ([]domain.DatasetAccess, error) {
	if m.ListDatasetAccessFn != nil {
		return m.ListDatasetAccessFn(ctx, projectID)
	}
	panic("unexpected call to MockBigQueryAuditor.ListDatasetAccess")
}

// === Pub/Sub Auditor Mock ===

// MockPubSubAuditor implements domain.PubSubAuditor for testing.
type MockPubSubAuditor struct {
	ListTopicPoliciesFn func(ctx context.Context, projectID string) ([]domain.TopicPolicy, error)
}

var _ domain.PubSubAuditor = (*MockPubSubAuditor)(nil)

// ListTopicPolicies implements the interface method for testing.
func (m *MockPubSubAuditor) ListTopicPolicies(ctx context.Context, projectID string) ([]domain.TopicPolicy, error) {
	if m.ListTopicPoliciesFn != nil {
		return m.ListTopicPoliciesFn(ctx, projectID)
	}
	panic("unexpected call to MockPubSubAuditor.ListTopicPolicies")
}
