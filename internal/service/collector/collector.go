// Package collector orchestrates IAM policy collection: fetching policies
// through the Cloud Asset API, walking the resource hierarchy, and
// persisting snapshots as compliance records.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dograga/compliance-checks/internal/domain"
)

// maxConcurrentProjects bounds the fan-out of a folder/org collection run.
const maxConcurrentProjects = 5

// Service collects IAM policies and persists them as records.
type Service struct {
	inventory  domain.AssetInventory
	browser    domain.ResourceBrowser
	store      domain.RecordStore
	assetTypes []string
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a collector service. assetTypes is the Asset API
// filter for hierarchy-wide runs; the per-project endpoints use fixed
// single-type filters.
func NewService(inv domain.AssetInventory, browser domain.ResourceBrowser, store domain.RecordStore, assetTypes []string, logger *slog.Logger) *Service {
	return &Service{
		inventory:  inv,
		browser:    browser,
		store:      store,
		assetTypes: assetTypes,
		logger:     logger.With("component", "collector"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// VMPolicies returns the IAM policies of a project's Compute Engine
// instances, merged with instance metadata from the RESOURCE content type.
// Nothing is persisted.
func (s *Service) VMPolicies(ctx context.Context, projectID string) ([]domain.Record, error) {
	if projectID == "" {
		return nil, domain.ErrValidation("project id is required")
	}
	scope := "projects/" + projectID
	types := []string{domain.AssetTypeInstance}

	resources, err := s.inventory.ListResources(ctx, scope, types)
	if err != nil {
		return nil, err
	}
	policies, err := s.inventory.ListIAMPolicies(ctx, scope, types)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]domain.IAMPolicy, len(policies))
	for _, p := range policies {
		byName[p.Name] = p.Policy
	}

	records := make([]domain.Record, 0, len(resources))
	for _, res := range resources {
		rec := s.instanceRecord(projectID, res.Name, res.Ancestors, byName[res.Name])
		records = append(records, rec)
	}
	// Instances with a policy but no RESOURCE result still get a record.
	for _, p := range policies {
		if !hasResource(resources, p.Name) {
			records = append(records, s.instanceRecord(projectID, p.Name, p.Ancestors, p.Policy))
		}
	}
	sortByDocID(records)
	return records, nil
}

// BucketPolicies returns the IAM policies of a project's Cloud Storage
// buckets. Nothing is persisted.
func (s *Service) BucketPolicies(ctx context.Context, projectID string) ([]domain.Record, error) {
	if projectID == "" {
		return nil, domain.ErrValidation("project id is required")
	}
	policies, err := s.inventory.ListIAMPolicies(ctx, "projects/"+projectID, []string{domain.AssetTypeBucket})
	if err != nil {
		return nil, err
	}
	records := make([]domain.Record, 0, len(policies))
	for _, p := range policies {
		records = append(records, s.bucketRecord(projectID, p))
	}
	sortByDocID(records)
	return records, nil
}

// SaveResult reports what a single-project save stored.
type SaveResult struct {
	ProjectID string
	Saved     int
}

// SaveProject collects a project's VM and bucket policies and persists them.
func (s *Service) SaveProject(ctx context.Context, projectID string, includeVMs, includeBuckets bool) (*SaveResult, error) {
	if projectID == "" {
		return nil, domain.ErrValidation("project id is required")
	}
	if !includeVMs && !includeBuckets {
		return nil, domain.ErrValidation("at least one of vm or bucket policies must be included")
	}

	records, err := s.collectProject(ctx, projectID, includeVMs, includeBuckets, "")
	if err != nil {
		return nil, err
	}
	for i := range records {
		if err := s.store.Put(ctx, &records[i]); err != nil {
			return nil, fmt.Errorf("store record %s: %w", records[i].DocID, err)
		}
	}
	s.logger.Info("saved project iam data", "project_id", projectID, "records", len(records))
	return &SaveResult{ProjectID: projectID, Saved: len(records)}, nil
}

// CollectRequest asks for a hierarchy-wide collection run. Exactly one of
// FolderID and OrgID must be set.
type CollectRequest struct {
	FolderID       string
	OrgID          string
	IncludeVMs     bool
	IncludeBuckets bool
}

// Scope returns the parent scope the request targets.
func (r CollectRequest) Scope() string {
	if r.FolderID != "" {
		return "folders/" + r.FolderID
	}
	return "organizations/" + r.OrgID
}

// ProjectError is a per-project failure inside an otherwise successful run.
type ProjectError struct {
	ProjectID string
	Message   string
}

// CollectSummary reports the outcome of a hierarchy-wide run.
type CollectSummary struct {
	Scope    string
	Projects int
	Records  int
	Errors   []ProjectError
}

// Collect discovers every active project under the requested folder or
// organization and collects IAM policies from each one concurrently.
// Previously stored records for the scope are replaced. Per-project
// failures do not abort the run; they are reported in the summary.
func (s *Service) Collect(ctx context.Context, req CollectRequest) (*CollectSummary, error) {
	if (req.FolderID == "") == (req.OrgID == "") {
		return nil, domain.ErrValidation("exactly one of folder_id and org_id is required")
	}
	if !req.IncludeVMs && !req.IncludeBuckets {
		return nil, domain.ErrValidation("at least one of vm or bucket policies must be included")
	}

	scope := req.Scope()
	projects, err := s.discoverProjects(ctx, scope)
	if err != nil {
		return nil, err
	}
	s.logger.Info("starting collection run", "scope", scope, "projects", len(projects))

	replaced, err := s.store.DeleteByScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("clear previous records for %s: %w", scope, err)
	}
	if replaced > 0 {
		s.logger.Debug("replaced previous run", "scope", scope, "records", replaced)
	}

	summary := &CollectSummary{Scope: scope, Projects: len(projects)}
	results := make([][]domain.Record, len(projects))
	errs := make([]error, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProjects)
	for i, projectID := range projects {
		i, projectID := i, projectID
		g.Go(func() error {
			records, err := s.collectProject(gctx, projectID, req.IncludeVMs, req.IncludeBuckets, scope)
			if err != nil {
				errs[i] = err
				return nil // per-project errors are reported, not fatal
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, projectID := range projects {
		if errs[i] != nil {
			summary.Errors = append(summary.Errors, ProjectError{ProjectID: projectID, Message: errs[i].Error()})
			continue
		}
		for j := range results[i] {
			if err := s.store.Put(ctx, &results[i][j]); err != nil {
				return nil, fmt.Errorf("store record for %s: %w", results[i][j].AssetName, err)
			}
			summary.Records++
		}
	}

	s.logger.Info("collection run finished",
		"scope", scope, "projects", summary.Projects, "records", summary.Records, "failed_projects", len(summary.Errors))
	return summary, nil
}

// discoverProjects walks folders depth-first and returns every active
// project ID under parent, including parent's own projects.
func (s *Service) discoverProjects(ctx context.Context, parent string) ([]string, error) {
	projects, err := s.browser.ListProjects(ctx, parent)
	if err != nil {
		return nil, err
	}
	folders, err := s.browser.ListFolders(ctx, parent)
	if err != nil {
		return nil, err
	}
	for _, folder := range folders {
		nested, err := s.discoverProjects(ctx, folder)
		if err != nil {
			return nil, err
		}
		projects = append(projects, nested...)
	}
	return projects, nil
}

// collectProject fetches the requested policies for one project and builds
// records. A per-project save (empty scopeOverride) keeps the fixed
// instance/bucket filters and deterministic doc IDs; a hierarchy run
// requests the full configured asset-type set, replaces the parent scope
// with the run's folder or organization, and leaves doc IDs empty so the
// store assigns fresh ones.
func (s *Service) collectProject(ctx context.Context, projectID string, includeVMs, includeBuckets bool, scopeOverride string) ([]domain.Record, error) {
	if scopeOverride == "" {
		var records []domain.Record
		if includeVMs {
			vms, err := s.VMPolicies(ctx, projectID)
			if err != nil {
				return nil, err
			}
			records = append(records, vms...)
		}
		if includeBuckets {
			buckets, err := s.BucketPolicies(ctx, projectID)
			if err != nil {
				return nil, err
			}
			records = append(records, buckets...)
		}
		return records, nil
	}

	types := s.hierarchyAssetTypes(includeVMs, includeBuckets)
	if len(types) == 0 {
		return nil, nil
	}
	scope := "projects/" + projectID

	policies, err := s.inventory.ListIAMPolicies(ctx, scope, types)
	if err != nil {
		return nil, err
	}
	var resources []domain.AssetResource
	if containsType(types, domain.AssetTypeInstance) {
		resources, err = s.inventory.ListResources(ctx, scope, []string{domain.AssetTypeInstance})
		if err != nil {
			return nil, err
		}
	}

	byName := make(map[string]domain.AssetPolicy, len(policies))
	for _, p := range policies {
		byName[p.Name] = p
	}

	var records []domain.Record
	for _, res := range resources {
		p := byName[res.Name]
		records = append(records, s.instanceRecord(projectID, res.Name, res.Ancestors, p.Policy))
	}
	for _, p := range policies {
		switch p.AssetType {
		case domain.AssetTypeInstance:
			if !hasResource(resources, p.Name) {
				records = append(records, s.instanceRecord(projectID, p.Name, p.Ancestors, p.Policy))
			}
		case domain.AssetTypeBucket:
			records = append(records, s.bucketRecord(projectID, p))
		default:
			records = append(records, s.assetRecord(projectID, p))
		}
	}

	for i := range records {
		records[i].DocID = ""
		records[i].ParentScope = scopeOverride
	}
	return records, nil
}

// hierarchyAssetTypes returns the configured asset types, minus instances
// or buckets when the request excludes them.
func (s *Service) hierarchyAssetTypes(includeVMs, includeBuckets bool) []string {
	types := make([]string, 0, len(s.assetTypes))
	for _, t := range s.assetTypes {
		if t == domain.AssetTypeInstance && !includeVMs {
			continue
		}
		if t == domain.AssetTypeBucket && !includeBuckets {
			continue
		}
		types = append(types, t)
	}
	return types
}

func containsType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func (s *Service) instanceRecord(projectID, assetName string, ancestors []string, policy domain.IAMPolicy) domain.Record {
	number, org := domain.ParseAncestors(ancestors)
	zone, instance := domain.ParseInstanceAsset(assetName)
	return domain.Record{
		DocID:          domain.InstanceDocID(number, zone, instance),
		ParentScope:    "projects/" + number,
		ProjectID:      projectID,
		ProjectNumber:  number,
		OrganizationID: org,
		AssetName:      assetName,
		ResourceName:   instance,
		AssetType:      domain.AssetTypeInstance,
		Zone:           zone,
		Policy:         policy,
		CollectedAt:    s.now(),
	}
}

func (s *Service) bucketRecord(projectID string, p domain.AssetPolicy) domain.Record {
	number, org := domain.ParseAncestors(p.Ancestors)
	bucket := domain.ShortResourceName(p.Name)
	return domain.Record{
		DocID:          domain.BucketDocID(bucket),
		ParentScope:    "projects/" + number,
		ProjectID:      projectID,
		ProjectNumber:  number,
		OrganizationID: org,
		AssetName:      p.Name,
		ResourceName:   bucket,
		AssetType:      domain.AssetTypeBucket,
		Policy:         p.Policy,
		CollectedAt:    s.now(),
	}
}

// assetRecord builds a record for asset types without dedicated handling
// (Cloud SQL, GKE, Pub/Sub, BigQuery and so on from the configured set).
func (s *Service) assetRecord(projectID string, p domain.AssetPolicy) domain.Record {
	number, org := domain.ParseAncestors(p.Ancestors)
	return domain.Record{
		ParentScope:    "projects/" + number,
		ProjectID:      projectID,
		ProjectNumber:  number,
		OrganizationID: org,
		AssetName:      p.Name,
		ResourceName:   domain.ShortResourceName(p.Name),
		AssetType:      p.AssetType,
		Policy:         p.Policy,
		CollectedAt:    s.now(),
	}
}

func sortByDocID(records []domain.Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].DocID < records[j].DocID })
}

// hasResource reports whether name appears in the RESOURCE results.
func hasResource(resources []domain.AssetResource, name string) bool {
	for _, r := range resources {
		if strings.EqualFold(r.Name, name) {
			return true
		}
	}
	return false
}
