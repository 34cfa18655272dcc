package api

import (
	"time"

	"github.com/dograga/compliance-checks/internal/domain"
	"github.com/dograga/compliance-checks/internal/service/collector"
)

// API response and request models. Field names match the documents written
// by the collector so stored records and API responses look the same.

type conditionModel struct {
	Expression  string `json:"expression"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type bindingModel struct {
	Role      string          `json:"role"`
	Members   []string        `json:"members"`
	Condition *conditionModel `json:"condition,omitempty"`
}

type policyModel struct {
	Version  int32          `json:"version"`
	ETag     string         `json:"etag,omitempty"`
	Bindings []bindingModel `json:"bindings"`
}

type recordModel struct {
	DocID          string      `json:"doc_id"`
	ParentScope    string      `json:"parent_scope"`
	ProjectID      string      `json:"project_id"`
	ProjectNumber  string      `json:"project_number"`
	OrganizationID string      `json:"organization_id,omitempty"`
	AssetName      string      `json:"asset_name"`
	ResourceName   string      `json:"resource_name"`
	AssetType      string      `json:"asset_type"`
	Zone           string      `json:"zone,omitempty"`
	Policy         policyModel `json:"policy"`
	Timestamp      time.Time   `json:"timestamp"`
}

type recordListResponse struct {
	Records       []recordModel `json:"records"`
	TotalCount    int64         `json:"total_count"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type checkModel struct {
	Check    string `json:"check"`
	Resource string `json:"resource"`
	Status   string `json:"status"`
	Details  string `json:"details"`
}

type checkListResponse struct {
	ProjectID string       `json:"project_id"`
	Checks    []checkModel `json:"checks"`
}

type saveRequest struct {
	IncludeVMPolicies     *bool `json:"include_vm_policies"`
	IncludeBucketPolicies *bool `json:"include_bucket_policies"`
}

type saveResponse struct {
	ProjectID    string `json:"project_id"`
	SavedRecords int    `json:"saved_records"`
}

type collectRequest struct {
	FolderID              string `json:"folder_id"`
	OrgID                 string `json:"org_id"`
	IncludeVMPolicies     *bool  `json:"include_vm_policies"`
	IncludeBucketPolicies *bool  `json:"include_bucket_policies"`
}

type projectErrorModel struct {
	ProjectID string `json:"project_id"`
	Error     string `json:"error"`
}

type collectResponse struct {
	Scope    string              `json:"scope"`
	Projects int                 `json:"projects"`
	Records  int                 `json:"records"`
	Errors   []projectErrorModel `json:"errors,omitempty"`
}

type findingModel struct {
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	DocID     string `json:"doc_id"`
	Resource  string `json:"resource"`
	AssetType string `json:"asset_type"`
	Role      string `json:"role"`
	Member    string `json:"member"`
	Detail    string `json:"detail"`
}

type analysisSummaryModel struct {
	TotalRecords       int `json:"total_records"`
	PublicAccess       int `json:"public_access"`
	CrossProjectAccess int `json:"cross_project_access"`
	HighSeverity       int `json:"high_severity"`
	MediumSeverity     int `json:"medium_severity"`
}

type analysisResponse struct {
	Findings        []findingModel       `json:"findings"`
	Summary         analysisSummaryModel `json:"summary"`
	Recommendations []string             `json:"recommendations"`
}

// === Mapping helpers ===

func recordToAPI(rec domain.Record) recordModel {
	out := recordModel{
		DocID:          rec.DocID,
		ParentScope:    rec.ParentScope,
		ProjectID:      rec.ProjectID,
		ProjectNumber:  rec.ProjectNumber,
		OrganizationID: rec.OrganizationID,
		AssetName:      rec.AssetName,
		ResourceName:   rec.ResourceName,
		AssetType:      rec.AssetType,
		Zone:           rec.Zone,
		Timestamp:      rec.CollectedAt,
		Policy: policyModel{
			Version:  rec.Policy.Version,
			ETag:     rec.Policy.ETag,
			Bindings: make([]bindingModel, 0, len(rec.Policy.Bindings)),
		},
	}
	for _, b := range rec.Policy.Bindings {
		bm := bindingModel{Role: b.Role, Members: b.Members}
		if b.Condition != nil {
			bm.Condition = &conditionModel{
				Expression:  b.Condition.Expression,
				Title:       b.Condition.Title,
				Description: b.Condition.Description,
			}
		}
		out.Policy.Bindings = append(out.Policy.Bindings, bm)
	}
	return out
}

func recordsToAPI(recs []domain.Record) []recordModel {
	out := make([]recordModel, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recordToAPI(rec))
	}
	return out
}

func checksToAPI(checks []domain.CheckResult) []checkModel {
	out := make([]checkModel, 0, len(checks))
	for _, c := range checks {
		out = append(out, checkModel{Check: c.Check, Resource: c.Resource, Status: c.Status, Details: c.Details})
	}
	return out
}

func summaryToAPI(summary *collector.CollectSummary) collectResponse {
	out := collectResponse{
		Scope:    summary.Scope,
		Projects: summary.Projects,
		Records:  summary.Records,
	}
	for _, e := range summary.Errors {
		out.Errors = append(out.Errors, projectErrorModel{ProjectID: e.ProjectID, Error: e.Message})
	}
	return out
}

func reportToAPI(report *domain.AnalysisReport) analysisResponse {
	out := analysisResponse{
		Findings: make([]findingModel, 0, len(report.Findings)),
		Summary: analysisSummaryModel{
			TotalRecords:       report.Summary.TotalRecords,
			PublicAccess:       report.Summary.PublicAccess,
			CrossProjectAccess: report.Summary.CrossProjectAccess,
			HighSeverity:       report.Summary.HighSeverity,
			MediumSeverity:     report.Summary.MediumSeverity,
		},
		Recommendations: report.Recommendations,
	}
	for _, f := range report.Findings {
		out.Findings = append(out.Findings, findingModel{
			Type:      f.Type,
			Severity:  f.Severity,
			DocID:     f.DocID,
			Resource:  f.Resource,
			AssetType: f.AssetType,
			Role:      f.Role,
			Member:    f.Member,
			Detail:    f.Detail,
		})
	}
	return out
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
