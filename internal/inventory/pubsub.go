package inventory

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dograga/compliance-checks/internal/domain"
)

// PubSubClient inspects live Pub/Sub topic IAM policies for the
// public-access checks. The pubsub client is bound to a project, so one is
// created per audited project.
type PubSubClient struct {
	opts   []option.ClientOption
	logger *slog.Logger
}

var _ domain.PubSubAuditor = (*PubSubClient)(nil)

// NewPubSubClient creates a PubSubClient using Application Default
// Credentials.
func NewPubSubClient(logger *slog.Logger, opts ...option.ClientOption) *PubSubClient {
	return &PubSubClient{opts: opts, logger: logger.With("component", "pubsub-client")}
}

// ListTopicPolicies returns each topic in the project with its IAM
// bindings.
func (c *PubSubClient) ListTopicPolicies(ctx context.Context, projectID string) ([]domain.TopicPolicy, error) {
	client, err := pubsub.NewClient(ctx, projectID, c.opts...)
	if err != nil {
		return nil, translateGoogleError(err, "projects/"+projectID)
	}
	defer client.Close() //nolint:errcheck

	var out []domain.TopicPolicy
	it := client.Topics(ctx)
	for {
		topic, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, translateGoogleError(err, "projects/"+projectID)
		}
		policy, err := topic.IAM().Policy(ctx)
		if err != nil {
			return nil, translateGoogleError(err, topic.String())
		}
		tp := domain.TopicPolicy{Topic: topic.ID()}
		for _, role := range policy.Roles() {
			tp.Bindings = append(tp.Bindings, domain.IAMBinding{
				Role:    string(role),
				Members: policy.Members(role),
			})
		}
		out = append(out, tp)
	}
	c.logger.Debug("listed topic policies", "project_id", projectID, "topics", len(out))
	return out, nil
}
