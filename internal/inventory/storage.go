package inventory

import (
	"context"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dograga/compliance-checks/internal/domain"
)

// StorageClient inspects live Cloud Storage buckets for the public-access
// checks. The stored-record path goes through the Asset API instead; this
// client exists because legacy ACLs are not visible there.
type StorageClient struct {
	client *storage.Client
	logger *slog.Logger
}

var _ domain.StorageAuditor = (*StorageClient)(nil)

// NewStorageClient creates a StorageClient using Application Default Credentials.
func NewStorageClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*StorageClient, error) {
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &StorageClient{client: c, logger: logger.With("component", "storage-client")}, nil
}

// Close releases the underlying connection.
func (c *StorageClient) Close() error {
	return c.client.Close()
}

// ListBuckets returns the project's buckets with their legacy ACL entities.
func (c *StorageClient) ListBuckets(ctx context.Context, projectID string) ([]domain.BucketInfo, error) {
	var out []domain.BucketInfo
	it := c.client.Buckets(ctx, projectID)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateGoogleError(err, "projects/"+projectID)
		}
		info := domain.BucketInfo{Name: attrs.Name}
		for _, rule := range attrs.ACL {
			info.ACLEntities = append(info.ACLEntities, string(rule.Entity))
		}
		out = append(out, info)
	}
	c.logger.Debug("listed buckets", "project_id", projectID, "count", len(out))
	return out, nil
}

// BucketIAMBindings returns the bucket's IAM policy bindings.
func (c *StorageClient) BucketIAMBindings(ctx context.Context, bucket string) ([]domain.IAMBinding, error) {
	policy, err := c.client.Bucket(bucket).IAM().V3().Policy(ctx)
	if err != nil {
		return nil, translateGoogleError(err, "buckets/"+bucket)
	}
	bindings := make([]domain.IAMBinding, 0, len(policy.Bindings))
	for _, b := range policy.Bindings {
		bindings = append(bindings, bindingFromProto(b))
	}
	return bindings, nil
}
