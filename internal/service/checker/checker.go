// Package checker runs live public-access checks against a project and
// analyses stored records for compliance issues.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dograga/compliance-checks/internal/domain"
)

// openToWorldCIDR in an authorized-network entry exposes a Cloud SQL
// instance to every address.
const openToWorldCIDR = "0.0.0.0/0"

// Auditors groups the live-state clients the checks read from.
type Auditors struct {
	Storage  domain.StorageAuditor
	SQL      domain.SQLAuditor
	BigQuery domain.BigQueryAuditor
	PubSub   domain.PubSubAuditor
	Projects domain.ProjectPolicyReader
}

// Service performs compliance checks.
type Service struct {
	auditors Auditors
	store    domain.RecordStore
	logger   *slog.Logger
}

// NewService creates a checker service.
func NewService(auditors Auditors, store domain.RecordStore, logger *slog.Logger) *Service {
	return &Service{
		auditors: auditors,
		store:    store,
		logger:   logger.With("component", "checker"),
	}
}

// RunChecks inspects the live state of a project and returns one Pass/Fail
// result per check, covering Cloud Storage (IAM and legacy ACLs, which are
// invisible to the Asset API), Cloud SQL network exposure, the project's
// own IAM policy, BigQuery dataset access, and Pub/Sub topic IAM.
func (s *Service) RunChecks(ctx context.Context, projectID string) ([]domain.CheckResult, error) {
	if projectID == "" {
		return nil, domain.ErrValidation("project id is required")
	}

	var results []domain.CheckResult

	buckets, err := s.auditors.Storage.ListBuckets(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, bucket := range buckets {
		iamResult, err := s.checkBucketIAM(ctx, bucket.Name)
		if err != nil {
			return nil, err
		}
		results = append(results, iamResult, checkBucketACL(bucket))
	}

	sqlResults, err := s.checkSQLInstances(ctx, projectID)
	if err != nil {
		return nil, err
	}
	results = append(results, sqlResults...)

	projectResult, err := s.checkProjectIAM(ctx, projectID)
	if err != nil {
		return nil, err
	}
	results = append(results, projectResult)

	bqResults, err := s.checkDatasets(ctx, projectID)
	if err != nil {
		return nil, err
	}
	results = append(results, bqResults...)

	topicResults, err := s.checkTopics(ctx, projectID)
	if err != nil {
		return nil, err
	}
	results = append(results, topicResults...)

	s.logger.Info("ran public-access checks", "project_id", projectID, "checks", len(results))
	return results, nil
}

func (s *Service) checkBucketIAM(ctx context.Context, bucket string) (domain.CheckResult, error) {
	bindings, err := s.auditors.Storage.BucketIAMBindings(ctx, bucket)
	if err != nil {
		return domain.CheckResult{}, err
	}
	result := domain.CheckResult{
		Check:    "bucket_iam_public_access",
		Resource: bucket,
		Status:   domain.CheckPass,
		Details:  "no public IAM bindings",
	}
	if public := publicBindings(bindings); len(public) > 0 {
		result.Status = domain.CheckFail
		result.Details = "public IAM bindings: " + strings.Join(public, ", ")
	}
	return result, nil
}

func checkBucketACL(bucket domain.BucketInfo) domain.CheckResult {
	result := domain.CheckResult{
		Check:    "bucket_acl_public_access",
		Resource: bucket.Name,
		Status:   domain.CheckPass,
		Details:  "no public ACL entries",
	}
	for _, entity := range bucket.ACLEntities {
		if domain.IsPublicMember(entity) {
			result.Status = domain.CheckFail
			result.Details = fmt.Sprintf("public ACL entity %s", entity)
			break
		}
	}
	return result
}

// checkSQLInstances produces two results per Cloud SQL instance: whether
// its primary address is public, and whether an authorized network opens
// it to 0.0.0.0/0.
func (s *Service) checkSQLInstances(ctx context.Context, projectID string) ([]domain.CheckResult, error) {
	instances, err := s.auditors.SQL.ListSQLInstances(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var results []domain.CheckResult
	for _, inst := range instances {
		ipResult := domain.CheckResult{
			Check:    "sql_instance_public_ip",
			Resource: inst.Name,
			Status:   domain.CheckPass,
			Details:  "no public primary address",
		}
		if inst.PublicIP {
			ipResult.Status = domain.CheckFail
			ipResult.Details = "instance has a public primary address"
		}

		netResult := domain.CheckResult{
			Check:    "sql_instance_open_network",
			Resource: inst.Name,
			Status:   domain.CheckPass,
			Details:  "no authorized network open to the world",
		}
		for _, network := range inst.AuthorizedNetworks {
			if network == openToWorldCIDR {
				netResult.Status = domain.CheckFail
				netResult.Details = "authorized network " + openToWorldCIDR + " admits any address"
				break
			}
		}
		results = append(results, ipResult, netResult)
	}
	return results, nil
}

func (s *Service) checkProjectIAM(ctx context.Context, projectID string) (domain.CheckResult, error) {
	bindings, err := s.auditors.Projects.ProjectIAMBindings(ctx, projectID)
	if err != nil {
		return domain.CheckResult{}, err
	}
	result := domain.CheckResult{
		Check:    "project_iam_public_access",
		Resource: projectID,
		Status:   domain.CheckPass,
		Details:  "no public IAM bindings",
	}
	if public := publicBindings(bindings); len(public) > 0 {
		result.Status = domain.CheckFail
		result.Details = "public IAM bindings: " + strings.Join(public, ", ")
	}
	return result, nil
}

func (s *Service) checkDatasets(ctx context.Context, projectID string) ([]domain.CheckResult, error) {
	datasets, err := s.auditors.BigQuery.ListDatasetAccess(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var results []domain.CheckResult
	for _, ds := range datasets {
		result := domain.CheckResult{
			Check:    "bigquery_dataset_public_access",
			Resource: ds.Dataset,
			Status:   domain.CheckPass,
			Details:  "no public access entries",
		}
		for _, entity := range ds.Entities {
			if domain.IsPublicMember(entity) {
				result.Status = domain.CheckFail
				result.Details = fmt.Sprintf("public access entry %s", entity)
				break
			}
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) checkTopics(ctx context.Context, projectID string) ([]domain.CheckResult, error) {
	topics, err := s.auditors.PubSub.ListTopicPolicies(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var results []domain.CheckResult
	for _, topic := range topics {
		result := domain.CheckResult{
			Check:    "pubsub_topic_public_access",
			Resource: topic.Topic,
			Status:   domain.CheckPass,
			Details:  "no public IAM bindings",
		}
		if public := publicBindings(topic.Bindings); len(public) > 0 {
			result.Status = domain.CheckFail
			result.Details = "public IAM bindings: " + strings.Join(public, ", ")
		}
		results = append(results, result)
	}
	return results, nil
}

// publicBindings returns "role:member" pairs for every public member.
func publicBindings(bindings []domain.IAMBinding) []string {
	var out []string
	for _, b := range bindings {
		for _, m := range b.Members {
			if domain.IsPublicMember(m) {
				out = append(out, b.Role+":"+m)
			}
		}
	}
	return out
}
