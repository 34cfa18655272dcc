package domain

import "context"

// RecordStore persists compliance records.
// Implemented by store.FirestoreStore and store.LocalStore.
type RecordStore interface {
	// Put writes a record under rec.DocID, overwriting any existing document.
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, docID string) (*Record, error)
	List(ctx context.Context, filter RecordFilter) ([]Record, int64, error)
	Delete(ctx context.Context, docID string) error
	// DeleteByScope removes every record whose parent scope matches and
	// returns the number of deleted documents.
	DeleteByScope(ctx context.Context, parentScope string) (int64, error)
	Close() error
}

// AssetInventory reads IAM policies and resource metadata through the
// Cloud Asset API. Implemented by inventory.AssetClient.
type AssetInventory interface {
	ListIAMPolicies(ctx context.Context, scope string, assetTypes []string) ([]AssetPolicy, error)
	ListResources(ctx context.Context, scope string, assetTypes []string) ([]AssetResource, error)
}

// ResourceBrowser walks the resource hierarchy through the Resource
// Manager API. Implemented by inventory.ResourceManagerClient.
type ResourceBrowser interface {
	// ListProjects returns the IDs of ACTIVE projects directly under parent.
	ListProjects(ctx context.Context, parent string) ([]string, error)
	// ListFolders returns the full names ("folders/N") of folders directly under parent.
	ListFolders(ctx context.Context, parent string) ([]string, error)
}

// BucketInfo is the subset of bucket metadata the live checks need.
type BucketInfo struct {
	Name        string
	ACLEntities []string
}

// StorageAuditor inspects live Cloud Storage state for the public-access
// checks. Implemented by inventory.StorageClient.
type StorageAuditor interface {
	ListBuckets(ctx context.Context, projectID string) ([]BucketInfo, error)
	BucketIAMBindings(ctx context.Context, bucket string) ([]IAMBinding, error)
}

// ProjectPolicyReader fetches a project's own IAM policy.
// Implemented by inventory.ResourceManagerClient via GetIamPolicy.
type ProjectPolicyReader interface {
	ProjectIAMBindings(ctx context.Context, projectID string) ([]IAMBinding, error)
}

// SQLInstanceInfo is the subset of Cloud SQL instance settings the live
// checks need.
type SQLInstanceInfo struct {
	Name               string
	PublicIP           bool
	AuthorizedNetworks []string
}

// SQLAuditor inspects live Cloud SQL state for the public-access checks.
// Implemented by inventory.SQLAdminClient.
type SQLAuditor interface {
	ListSQLInstances(ctx context.Context, projectID string) ([]SQLInstanceInfo, error)
}

// DatasetAccess is one BigQuery dataset with its access entry entities.
type DatasetAccess struct {
	Dataset  string
	Entities []string
}

// BigQueryAuditor inspects live BigQuery dataset access for the
// public-access checks. Implemented by inventory.BigQueryClient.
type BigQueryAuditor interface {
	ListDatasetAccess(ctx context.Context, projectID string) ([]DatasetAccess, error)
}

// TopicPolicy is one Pub/Sub topic with its IAM bindings.
type TopicPolicy struct {
	Topic    string
	Bindings []IAMBinding
}

// PubSubAuditor inspects live Pub/Sub topic IAM for the public-access
// checks. Implemented by inventory.PubSubClient.
type PubSubAuditor interface {
	ListTopicPolicies(ctx context.Context, projectID string) ([]TopicPolicy, error)
}
