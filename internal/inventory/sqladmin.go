package inventory

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	sqladmin "google.golang.org/api/sqladmin/v1"

	"github.com/dograga/compliance-checks/internal/domain"
)

// SQLAdminClient inspects live Cloud SQL instances for the public-access
// checks.
type SQLAdminClient struct {
	svc    *sqladmin.Service
	logger *slog.Logger
}

var _ domain.SQLAuditor = (*SQLAdminClient)(nil)

// NewSQLAdminClient creates a SQLAdminClient using Application Default
// Credentials.
func NewSQLAdminClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*SQLAdminClient, error) {
	svc, err := sqladmin.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &SQLAdminClient{svc: svc, logger: logger.With("component", "sqladmin-client")}, nil
}

// ListSQLInstances returns the project's Cloud SQL instances with the
// network settings the checks inspect. An instance counts as publicly
// addressable when its primary address is outside the 10.0.0.0/8 private
// range.
func (c *SQLAdminClient) ListSQLInstances(ctx context.Context, projectID string) ([]domain.SQLInstanceInfo, error) {
	resp, err := c.svc.Instances.List(projectID).Context(ctx).Do()
	if err != nil {
		return nil, translateGoogleError(err, "projects/"+projectID)
	}

	out := make([]domain.SQLInstanceInfo, 0, len(resp.Items))
	for _, inst := range resp.Items {
		info := domain.SQLInstanceInfo{Name: inst.Name}
		for _, ip := range inst.IpAddresses {
			if ip.Type == "PRIMARY" && !strings.HasPrefix(ip.IpAddress, "10.") {
				info.PublicIP = true
			}
		}
		if inst.Settings != nil && inst.Settings.IpConfiguration != nil {
			for _, acl := range inst.Settings.IpConfiguration.AuthorizedNetworks {
				info.AuthorizedNetworks = append(info.AuthorizedNetworks, acl.Value)
			}
		}
		out = append(out, info)
	}
	c.logger.Debug("listed sql instances", "project_id", projectID, "count", len(out))
	return out, nil
}
