// Package inventory wraps the Google Cloud clients used by the service:
// Cloud Asset Inventory, Resource Manager and Cloud Storage. Each wrapper
// exposes a narrow interface defined in domain and translates Google API
// errors into domain errors.
package inventory

import (
	"context"
	"log/slog"

	asset "cloud.google.com/go/asset/apiv1"
	"cloud.google.com/go/asset/apiv1/assetpb"
	"cloud.google.com/go/iam/apiv1/iampb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dograga/compliance-checks/internal/domain"
)

const listPageSize = 1000

// AssetClient reads IAM policies and resource metadata through the Cloud
// Asset API.
type AssetClient struct {
	client *asset.Client
	logger *slog.Logger
}

var _ domain.AssetInventory = (*AssetClient)(nil)

// NewAssetClient creates an AssetClient using Application Default Credentials.
func NewAssetClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*AssetClient, error) {
	c, err := asset.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &AssetClient{client: c, logger: logger.With("component", "asset-client")}, nil
}

// Close releases the underlying gRPC connection.
func (c *AssetClient) Close() error {
	return c.client.Close()
}

// ListIAMPolicies returns the IAM policies of all assets of the given types
// under scope ("projects/ID", "folders/N" or "organizations/N").
func (c *AssetClient) ListIAMPolicies(ctx context.Context, scope string, assetTypes []string) ([]domain.AssetPolicy, error) {
	req := &assetpb.ListAssetsRequest{
		Parent:      scope,
		AssetTypes:  assetTypes,
		ContentType: assetpb.ContentType_IAM_POLICY,
		PageSize:    listPageSize,
	}

	var out []domain.AssetPolicy
	it := c.client.ListAssets(ctx, req)
	for {
		a, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateGoogleError(err, scope)
		}
		out = append(out, domain.AssetPolicy{
			Name:      a.GetName(),
			AssetType: a.GetAssetType(),
			Ancestors: a.GetAncestors(),
			Policy:    policyFromProto(a.GetIamPolicy()),
		})
	}
	c.logger.Debug("listed iam policies", "scope", scope, "count", len(out))
	return out, nil
}

// ListResources returns resource metadata for all assets of the given types
// under scope.
func (c *AssetClient) ListResources(ctx context.Context, scope string, assetTypes []string) ([]domain.AssetResource, error) {
	req := &assetpb.ListAssetsRequest{
		Parent:      scope,
		AssetTypes:  assetTypes,
		ContentType: assetpb.ContentType_RESOURCE,
		PageSize:    listPageSize,
	}

	var out []domain.AssetResource
	it := c.client.ListAssets(ctx, req)
	for {
		a, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateGoogleError(err, scope)
		}
		out = append(out, domain.AssetResource{
			Name:      a.GetName(),
			AssetType: a.GetAssetType(),
			Location:  a.GetResource().GetLocation(),
			Ancestors: a.GetAncestors(),
		})
	}
	c.logger.Debug("listed resources", "scope", scope, "count", len(out))
	return out, nil
}

// policyFromProto converts an IAM policy proto into the domain snapshot form.
func policyFromProto(p *iampb.Policy) domain.IAMPolicy {
	if p == nil {
		return domain.IAMPolicy{}
	}
	out := domain.IAMPolicy{
		Version: p.GetVersion(),
		ETag:    string(p.GetEtag()),
	}
	for _, b := range p.GetBindings() {
		out.Bindings = append(out.Bindings, bindingFromProto(b))
	}
	return out
}

func bindingFromProto(b *iampb.Binding) domain.IAMBinding {
	binding := domain.IAMBinding{
		Role:    b.GetRole(),
		Members: b.GetMembers(),
	}
	if cond := b.GetCondition(); cond != nil {
		binding.Condition = &domain.IAMCondition{
			Expression:  cond.GetExpression(),
			Title:       cond.GetTitle(),
			Description: cond.GetDescription(),
		}
	}
	return binding
}
