package inventory

import (
	"context"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dograga/compliance-checks/internal/domain"
)

// BigQueryClient inspects live BigQuery dataset access entries for the
// public-access checks. The bigquery client is bound to a project, so one
// is created per audited project.
type BigQueryClient struct {
	opts   []option.ClientOption
	logger *slog.Logger
}

var _ domain.BigQueryAuditor = (*BigQueryClient)(nil)

// NewBigQueryClient creates a BigQueryClient using Application Default
// Credentials.
func NewBigQueryClient(logger *slog.Logger, opts ...option.ClientOption) *BigQueryClient {
	return &BigQueryClient{opts: opts, logger: logger.With("component", "bigquery-client")}
}

// ListDatasetAccess returns each dataset in the project with the entities
// named in its access entries.
func (c *BigQueryClient) ListDatasetAccess(ctx context.Context, projectID string) ([]domain.DatasetAccess, error) {
	client, err := bigquery.NewClient(ctx, projectID, c.opts...)
	if err != nil {
		return nil, translateGoogleError(err, "projects/"+projectID)
	}
	defer client.Close() //nolint:errcheck

	var out []domain.DatasetAccess
	it := client.Datasets(ctx)
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateGoogleError(err, "projects/"+projectID)
		}
		md, err := ds.Metadata(ctx)
		if err != nil {
			return nil, translateGoogleError(err, "datasets/"+ds.DatasetID)
		}
		access := domain.DatasetAccess{Dataset: ds.DatasetID}
		for _, entry := range md.Access {
			access.Entities = append(access.Entities, entry.Entity)
		}
		out = append(out, access)
	}
	c.logger.Debug("listed dataset access", "project_id", projectID, "datasets", len(out))
	return out, nil
}
