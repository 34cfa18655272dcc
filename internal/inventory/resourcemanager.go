package inventory

import (
	"context"
	"log/slog"

	"cloud.google.com/go/iam/apiv1/iampb"
	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	"cloud.google.com/go/resourcemanager/apiv3/resourcemanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dograga/compliance-checks/internal/domain"
)

// ResourceManagerClient walks the project/folder hierarchy and reads
// project IAM policies.
type ResourceManagerClient struct {
	projects *resourcemanager.ProjectsClient
	folders  *resourcemanager.FoldersClient
	logger   *slog.Logger
}

var (
	_ domain.ResourceBrowser     = (*ResourceManagerClient)(nil)
	_ domain.ProjectPolicyReader = (*ResourceManagerClient)(nil)
)

// NewResourceManagerClient creates a ResourceManagerClient using Application
// Default Credentials.
func NewResourceManagerClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*ResourceManagerClient, error) {
	pc, err := resourcemanager.NewProjectsClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	fc, err := resourcemanager.NewFoldersClient(ctx, opts...)
	if err != nil {
		pc.Close() //nolint:errcheck
		return nil, err
	}
	return &ResourceManagerClient{
		projects: pc,
		folders:  fc,
		logger:   logger.With("component", "resourcemanager-client"),
	}, nil
}

// Close releases both underlying gRPC connections.
func (c *ResourceManagerClient) Close() error {
	err := c.projects.Close()
	if ferr := c.folders.Close(); err == nil {
		err = ferr
	}
	return err
}

// ListProjects returns the IDs of ACTIVE projects directly under parent
// ("folders/N" or "organizations/N").
func (c *ResourceManagerClient) ListProjects(ctx context.Context, parent string) ([]string, error) {
	var ids []string
	it := c.projects.ListProjects(ctx, &resourcemanagerpb.ListProjectsRequest{Parent: parent})
	for {
		p, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateGoogleError(err, parent)
		}
		if p.GetState() == resourcemanagerpb.Project_ACTIVE {
			ids = append(ids, p.GetProjectId())
		}
	}
	return ids, nil
}

// ListFolders returns the names ("folders/N") of folders directly under parent.
func (c *ResourceManagerClient) ListFolders(ctx context.Context, parent string) ([]string, error) {
	var names []string
	it := c.folders.ListFolders(ctx, &resourcemanagerpb.ListFoldersRequest{Parent: parent})
	for {
		f, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateGoogleError(err, parent)
		}
		names = append(names, f.GetName())
	}
	return names, nil
}

// ProjectIAMBindings returns the IAM bindings attached directly to a project.
func (c *ResourceManagerClient) ProjectIAMBindings(ctx context.Context, projectID string) ([]domain.IAMBinding, error) {
	resource := "projects/" + projectID
	policy, err := c.projects.GetIamPolicy(ctx, &iampb.GetIamPolicyRequest{Resource: resource})
	if err != nil {
		return nil, translateGoogleError(err, resource)
	}
	bindings := make([]domain.IAMBinding, 0, len(policy.GetBindings()))
	for _, b := range policy.GetBindings() {
		bindings = append(bindings, bindingFromProto(b))
	}
	return bindings, nil
}
