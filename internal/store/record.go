package store

import (
	"sort"
	"time"

	"github.com/dograga/compliance-checks/internal/domain"
)

// storedRecord is the document shape shared by both backends. Field names
// match the documents written by earlier collector deployments.
type storedRecord struct {
	ParentScope    string       `json:"parent_scope" firestore:"parent_scope"`
	ProjectID      string       `json:"project_id" firestore:"project_id"`
	ProjectNumber  string       `json:"project_number" firestore:"project_number"`
	OrganizationID string       `json:"organization_id" firestore:"organization_id"`
	AssetName      string       `json:"asset_name" firestore:"asset_name"`
	ResourceName   string       `json:"resource_name" firestore:"resource_name"`
	AssetType      string       `json:"asset_type" firestore:"asset_type"`
	Zone           string       `json:"zone,omitempty" firestore:"zone,omitempty"`
	Policy         storedPolicy `json:"policy" firestore:"policy"`
	CollectedAt    time.Time    `json:"timestamp" firestore:"timestamp"`
}

type storedPolicy struct {
	Version  int32           `json:"version" firestore:"version"`
	ETag     string          `json:"etag" firestore:"etag"`
	Bindings []storedBinding `json:"bindings" firestore:"bindings"`
}

type storedBinding struct {
	Role      string           `json:"role" firestore:"role"`
	Members   []string         `json:"members" firestore:"members"`
	Condition *storedCondition `json:"condition,omitempty" firestore:"condition,omitempty"`
}

type storedCondition struct {
	Expression  string `json:"expression" firestore:"expression"`
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description" firestore:"description"`
}

func toStored(rec *domain.Record) storedRecord {
	out := storedRecord{
		ParentScope:    rec.ParentScope,
		ProjectID:      rec.ProjectID,
		ProjectNumber:  rec.ProjectNumber,
		OrganizationID: rec.OrganizationID,
		AssetName:      rec.AssetName,
		ResourceName:   rec.ResourceName,
		AssetType:      rec.AssetType,
		Zone:           rec.Zone,
		CollectedAt:    rec.CollectedAt,
		Policy: storedPolicy{
			Version: rec.Policy.Version,
			ETag:    rec.Policy.ETag,
		},
	}
	for _, b := range rec.Policy.Bindings {
		sb := storedBinding{Role: b.Role, Members: b.Members}
		if b.Condition != nil {
			sb.Condition = &storedCondition{
				Expression:  b.Condition.Expression,
				Title:       b.Condition.Title,
				Description: b.Condition.Description,
			}
		}
		out.Policy.Bindings = append(out.Policy.Bindings, sb)
	}
	return out
}

func fromStored(docID string, sr storedRecord) domain.Record {
	out := domain.Record{
		DocID:          docID,
		ParentScope:    sr.ParentScope,
		ProjectID:      sr.ProjectID,
		ProjectNumber:  sr.ProjectNumber,
		OrganizationID: sr.OrganizationID,
		AssetName:      sr.AssetName,
		ResourceName:   sr.ResourceName,
		AssetType:      sr.AssetType,
		Zone:           sr.Zone,
		CollectedAt:    sr.CollectedAt,
		Policy: domain.IAMPolicy{
			Version: sr.Policy.Version,
			ETag:    sr.Policy.ETag,
		},
	}
	for _, b := range sr.Policy.Bindings {
		db := domain.IAMBinding{Role: b.Role, Members: b.Members}
		if b.Condition != nil {
			db.Condition = &domain.IAMCondition{
				Expression:  b.Condition.Expression,
				Title:       b.Condition.Title,
				Description: b.Condition.Description,
			}
		}
		out.Policy.Bindings = append(out.Policy.Bindings, db)
	}
	return out
}

// matchesFilter applies the non-pagination filter fields.
func matchesFilter(rec domain.Record, filter domain.RecordFilter) bool {
	if filter.ProjectID != "" && rec.ProjectID != filter.ProjectID {
		return false
	}
	if scope := filter.ParentScope(); scope != "" && rec.ParentScope != scope {
		return false
	}
	if filter.AssetType != "" && rec.AssetType != filter.AssetType {
		return false
	}
	return true
}

// sortRecords orders newest first so pagination is stable across calls.
func sortRecords(recs []domain.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CollectedAt.Equal(recs[j].CollectedAt) {
			return recs[i].CollectedAt.After(recs[j].CollectedAt)
		}
		return recs[i].DocID < recs[j].DocID
	})
}

// pageSlice applies offset pagination to an already-sorted record list.
func pageSlice(recs []domain.Record, page domain.PageRequest) ([]domain.Record, int64) {
	total := int64(len(recs))
	offset := page.Offset()
	if offset >= len(recs) {
		return []domain.Record{}, total
	}
	end := offset + page.Limit()
	if end > len(recs) {
		end = len(recs)
	}
	return recs[offset:end], total
}
