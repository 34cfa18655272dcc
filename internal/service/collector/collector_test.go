package collector

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dograga/compliance-checks/internal/domain"
	"github.com/dograga/compliance-checks/internal/testutil"
)

var fixedNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func newTestService(inv *testutil.MockAssetInventory, browser *testutil.MockResourceBrowser, store *testutil.MockRecordStore) *Service {
	svc := NewService(inv, browser, store, domain.DefaultAssetTypes, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func instancePolicy(project, zone, name string) domain.AssetPolicy {
	return domain.AssetPolicy{
		Name:      "//compute.googleapis.com/projects/" + project + "/zones/" + zone + "/instances/" + name,
		AssetType: domain.AssetTypeInstance,
		Ancestors: []string{"projects/123", "organizations/777"},
		Policy: domain.IAMPolicy{
			Version:  1,
			Bindings: []domain.IAMBinding{{Role: "roles/compute.admin", Members: []string{"user:a@example.com"}}},
		},
	}
}

func TestVMPolicies_MergesResourceAndPolicy(t *testing.T) {
	policy := instancePolicy("demo", "asia-southeast1-a", "web-1")
	inv := &testutil.MockAssetInventory{
		ListResourcesFn: func(_ context.Context, scope string, types []string) ([]domain.AssetResource, error) {
			assert.Equal(t, "projects/demo", scope)
			assert.Equal(t, []string{domain.AssetTypeInstance}, types)
			return []domain.AssetResource{
				{Name: policy.Name, AssetType: domain.AssetTypeInstance, Ancestors: policy.Ancestors},
				{
					Name:      "//compute.googleapis.com/projects/demo/zones/asia-southeast1-b/instances/web-2",
					AssetType: domain.AssetTypeInstance,
					Ancestors: policy.Ancestors,
				},
			}, nil
		},
		ListIAMPoliciesFn: func(_ context.Context, scope string, types []string) ([]domain.AssetPolicy, error) {
			return []domain.AssetPolicy{policy}, nil
		},
	}

	svc := newTestService(inv, nil, nil)
	records, err := svc.VMPolicies(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Sorted by doc ID: web-1 (zone a) before web-2 (zone b).
	assert.Equal(t, "123-asia-southeast1-a-web-1", records[0].DocID)
	assert.Equal(t, "web-1", records[0].ResourceName)
	assert.Equal(t, "asia-southeast1-a", records[0].Zone)
	assert.Equal(t, "123", records[0].ProjectNumber)
	assert.Equal(t, "777", records[0].OrganizationID)
	assert.Equal(t, "projects/123", records[0].ParentScope)
	assert.Len(t, records[0].Policy.Bindings, 1)
	assert.Equal(t, fixedNow, records[0].CollectedAt)

	// Instance without a policy still produces a record with an empty policy.
	assert.Equal(t, "web-2", records[1].ResourceName)
	assert.Empty(t, records[1].Policy.Bindings)
}

func TestVMPolicies_PolicyWithoutResource(t *testing.T) {
	policy := instancePolicy("demo", "asia-southeast1-c", "orphan")
	inv := &testutil.MockAssetInventory{
		ListResourcesFn: func(_ context.Context, _ string, _ []string) ([]domain.AssetResource, error) {
			return nil, nil
		},
		ListIAMPoliciesFn: func(_ context.Context, _ string, _ []string) ([]domain.AssetPolicy, error) {
			return []domain.AssetPolicy{policy}, nil
		},
	}

	svc := newTestService(inv, nil, nil)
	records, err := svc.VMPolicies(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "orphan", records[0].ResourceName)
	assert.Len(t, records[0].Policy.Bindings, 1)
}

func TestVMPolicies_Validation(t *testing.T) {
	svc := newTestService(&testutil.MockAssetInventory{}, nil, nil)
	_, err := svc.VMPolicies(context.Background(), "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestVMPolicies_AccessDenied(t *testing.T) {
	inv := &testutil.MockAssetInventory{
		ListResourcesFn: func(_ context.Context, _ string, _ []string) ([]domain.AssetResource, error) {
			return nil, domain.ErrAccessDenied("permission denied accessing projects/demo")
		},
	}
	svc := newTestService(inv, nil, nil)
	_, err := svc.VMPolicies(context.Background(), "demo")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
}

func TestBucketPolicies(t *testing.T) {
	inv := &testutil.MockAssetInventory{
		ListIAMPoliciesFn: func(_ context.Context, scope string, types []string) ([]domain.AssetPolicy, error) {
			assert.Equal(t, "projects/demo", scope)
			assert.Equal(t, []string{domain.AssetTypeBucket}, types)
			return []domain.AssetPolicy{
				{
					Name:      "//storage.googleapis.com/demo-logs",
					AssetType: domain.AssetTypeBucket,
					Ancestors: []string{"projects/123", "folders/12", "organizations/777"},
					Policy: domain.IAMPolicy{
						Bindings: []domain.IAMBinding{{Role: "roles/storage.objectViewer", Members: []string{"allUsers"}}},
					},
				},
			}, nil
		},
	}

	svc := newTestService(inv, nil, nil)
	records, err := svc.BucketPolicies(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "demo-logs", records[0].DocID)
	assert.Equal(t, "demo-logs", records[0].ResourceName)
	assert.Equal(t, domain.AssetTypeBucket, records[0].AssetType)
	assert.Equal(t, "", records[0].Zone)
	assert.True(t, records[0].Policy.Bindings[0].HasPublicMember())
}

func TestSaveProject(t *testing.T) {
	policy := instancePolicy("demo", "asia-southeast1-a", "web-1")
	inv := &testutil.MockAssetInventory{
		ListResourcesFn: func(_ context.Context, _ string, _ []string) ([]domain.AssetResource, error) {
			return []domain.AssetResource{{Name: policy.Name, AssetType: domain.AssetTypeInstance, Ancestors: policy.Ancestors}}, nil
		},
		ListIAMPoliciesFn: func(_ context.Context, _ string, types []string) ([]domain.AssetPolicy, error) {
			if types[0] == domain.AssetTypeBucket {
				return []domain.AssetPolicy{{
					Name:      "//storage.googleapis.com/demo-logs",
					AssetType: domain.AssetTypeBucket,
					Ancestors: policy.Ancestors,
				}}, nil
			}
			return []domain.AssetPolicy{policy}, nil
		},
	}
	store := &testutil.MockRecordStore{}

	svc := newTestService(inv, nil, store)
	result, err := svc.SaveProject(context.Background(), "demo", true, true)
	require.NoError(t, err)
	assert.Equal(t, "demo", result.ProjectID)
	assert.Equal(t, 2, result.Saved)
	require.Len(t, store.Stored, 2)
	assert.Equal(t, "123-asia-southeast1-a-web-1", store.Stored[0].DocID)
	assert.Equal(t, "demo-logs", store.Stored[1].DocID)
}

func TestSaveProject_Validation(t *testing.T) {
	svc := newTestService(&testutil.MockAssetInventory{}, nil, &testutil.MockRecordStore{})

	var verr *domain.ValidationError
	_, err := svc.SaveProject(context.Background(), "", true, true)
	require.ErrorAs(t, err, &verr)

	_, err = svc.SaveProject(context.Background(), "demo", false, false)
	require.ErrorAs(t, err, &verr)
}

func TestCollect_RecursiveDiscovery(t *testing.T) {
	browser := &testutil.MockResourceBrowser{
		ListProjectsFn: func(_ context.Context, parent string) ([]string, error) {
			switch parent {
			case "folders/12":
				return []string{"proj-a"}, nil
			case "folders/34":
				return []string{"proj-b", "proj-c"}, nil
			default:
				return nil, nil
			}
		},
		ListFoldersFn: func(_ context.Context, parent string) ([]string, error) {
			if parent == "folders/12" {
				return []string{"folders/34"}, nil
			}
			return nil, nil
		},
	}
	inv := &testutil.MockAssetInventory{
		ListIAMPoliciesFn: func(_ context.Context, scope string, types []string) ([]domain.AssetPolicy, error) {
			project := scope[len("projects/"):]
			return []domain.AssetPolicy{{
				Name:      "//storage.googleapis.com/" + project + "-bucket",
				AssetType: domain.AssetTypeBucket,
				Ancestors: []string{"projects/123", "organizations/777"},
			}}, nil
		},
	}
	store := &testutil.MockRecordStore{}
	var clearedScope string
	store.DeleteByScopeFn = func(_ context.Context, scope string) (int64, error) {
		clearedScope = scope
		return 1, nil
	}
	var stored []domain.Record
	store.PutFn = func(_ context.Context, rec *domain.Record) error {
		stored = append(stored, *rec)
		return nil
	}

	svc := newTestService(inv, browser, store)
	summary, err := svc.Collect(context.Background(), CollectRequest{FolderID: "12", IncludeBuckets: true})
	require.NoError(t, err)

	assert.Equal(t, "folders/12", clearedScope)
	assert.Equal(t, "folders/12", summary.Scope)
	assert.Equal(t, 3, summary.Projects)
	assert.Equal(t, 3, summary.Records)
	assert.Empty(t, summary.Errors)
	require.Len(t, stored, 3)
	for _, rec := range stored {
		assert.Equal(t, "folders/12", rec.ParentScope)
		assert.Empty(t, rec.DocID, "collect runs leave doc IDs to the store")
	}
}

func TestCollect_UsesConfiguredAssetTypes(t *testing.T) {
	configured := []string{
		"pubsub.googleapis.com/Topic",
		"bigquery.googleapis.com/Dataset",
	}
	browser := &testutil.MockResourceBrowser{
		ListProjectsFn: func(_ context.Context, _ string) ([]string, error) { return []string{"proj-a"}, nil },
		ListFoldersFn:  func(_ context.Context, _ string) ([]string, error) { return nil, nil },
	}
	var requested [][]string
	inv := &testutil.MockAssetInventory{
		ListIAMPoliciesFn: func(_ context.Context, scope string, types []string) ([]domain.AssetPolicy, error) {
			requested = append(requested, types)
			return []domain.AssetPolicy{{
				Name:      "//pubsub.googleapis.com/projects/proj-a/topics/events",
				AssetType: "pubsub.googleapis.com/Topic",
				Ancestors: []string{"projects/123", "organizations/777"},
				Policy: domain.IAMPolicy{
					Bindings: []domain.IAMBinding{{Role: "roles/pubsub.subscriber", Members: []string{"allUsers"}}},
				},
			}}, nil
		},
	}
	store := &testutil.MockRecordStore{
		DeleteByScopeFn: func(_ context.Context, _ string) (int64, error) { return 0, nil },
	}

	svc := NewService(inv, browser, store, configured, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }

	summary, err := svc.Collect(context.Background(), CollectRequest{FolderID: "12", IncludeVMs: true, IncludeBuckets: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Records)

	require.Len(t, requested, 1)
	assert.Equal(t, configured, requested[0])

	require.Len(t, store.Stored, 1)
	rec := store.Stored[0]
	assert.Empty(t, rec.DocID)
	assert.Equal(t, "pubsub.googleapis.com/Topic", rec.AssetType)
	assert.Equal(t, "events", rec.ResourceName)
	assert.Equal(t, "folders/12", rec.ParentScope)
	assert.Equal(t, "123", rec.ProjectNumber)
}

func TestCollect_HierarchyMergesInstanceResources(t *testing.T) {
	policy := instancePolicy("proj-a", "asia-southeast1-a", "web-1")
	browser := &testutil.MockResourceBrowser{
		ListProjectsFn: func(_ context.Context, _ string) ([]string, error) { return []string{"proj-a"}, nil },
		ListFoldersFn:  func(_ context.Context, _ string) ([]string, error) { return nil, nil },
	}
	inv := &testutil.MockAssetInventory{
		ListIAMPoliciesFn: func(_ context.Context, _ string, types []string) ([]domain.AssetPolicy, error) {
			assert.Equal(t, domain.DefaultAssetTypes, types)
			return []domain.AssetPolicy{policy}, nil
		},
		ListResourcesFn: func(_ context.Context, scope string, types []string) ([]domain.AssetResource, error) {
			assert.Equal(t, "projects/proj-a", scope)
			assert.Equal(t, []string{domain.AssetTypeInstance}, types)
			return []domain.AssetResource{{Name: policy.Name, AssetType: domain.AssetTypeInstance, Ancestors: policy.Ancestors}}, nil
		},
	}
	store := &testutil.MockRecordStore{
		DeleteByScopeFn: func(_ context.Context, _ string) (int64, error) { return 0, nil },
	}

	svc := newTestService(inv, browser, store)
	summary, err := svc.Collect(context.Background(), CollectRequest{OrgID: "777", IncludeVMs: true, IncludeBuckets: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Records)

	require.Len(t, store.Stored, 1)
	rec := store.Stored[0]
	assert.Empty(t, rec.DocID)
	assert.Equal(t, domain.AssetTypeInstance, rec.AssetType)
	assert.Equal(t, "asia-southeast1-a", rec.Zone)
	assert.Equal(t, "organizations/777", rec.ParentScope)
	assert.Len(t, rec.Policy.Bindings, 1)
}

func TestCollect_PartialFailure(t *testing.T) {
	browser := &testutil.MockResourceBrowser{
		ListProjectsFn: func(_ context.Context, parent string) ([]string, error) {
			return []string{"proj-ok", "proj-denied"}, nil
		},
		ListFoldersFn: func(_ context.Context, _ string) ([]string, error) { return nil, nil },
	}
	inv := &testutil.MockAssetInventory{
		ListIAMPoliciesFn: func(_ context.Context, scope string, _ []string) ([]domain.AssetPolicy, error) {
			if scope == "projects/proj-denied" {
				return nil, domain.ErrAccessDenied("permission denied accessing %s", scope)
			}
			return []domain.AssetPolicy{{
				Name:      "//storage.googleapis.com/ok-bucket",
				AssetType: domain.AssetTypeBucket,
				Ancestors: []string{"projects/123"},
			}}, nil
		},
	}
	store := &testutil.MockRecordStore{}

	svc := newTestService(inv, browser, store)
	summary, err := svc.Collect(context.Background(), CollectRequest{OrgID: "777", IncludeBuckets: true})
	require.NoError(t, err)

	assert.Equal(t, "organizations/777", summary.Scope)
	assert.Equal(t, 2, summary.Projects)
	assert.Equal(t, 1, summary.Records)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "proj-denied", summary.Errors[0].ProjectID)
	assert.Contains(t, summary.Errors[0].Message, "permission denied")
}

func TestCollect_Validation(t *testing.T) {
	svc := newTestService(&testutil.MockAssetInventory{}, &testutil.MockResourceBrowser{}, &testutil.MockRecordStore{})

	var verr *domain.ValidationError
	_, err := svc.Collect(context.Background(), CollectRequest{IncludeBuckets: true})
	require.ErrorAs(t, err, &verr, "neither folder nor org")

	_, err = svc.Collect(context.Background(), CollectRequest{FolderID: "1", OrgID: "2", IncludeBuckets: true})
	require.ErrorAs(t, err, &verr, "both folder and org")

	_, err = svc.Collect(context.Background(), CollectRequest{FolderID: "1"})
	require.ErrorAs(t, err, &verr, "nothing to collect")
}
