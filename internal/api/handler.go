// Package api implements the HTTP surface of the compliance service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dograga/compliance-checks/internal/domain"
	"github.com/dograga/compliance-checks/internal/service/collector"
)

// CollectorService is the collection surface the handlers depend on.
type CollectorService interface {
	VMPolicies(ctx context.Context, projectID string) ([]domain.Record, error)
	BucketPolicies(ctx context.Context, projectID string) ([]domain.Record, error)
	SaveProject(ctx context.Context, projectID string, includeVMs, includeBuckets bool) (*collector.SaveResult, error)
	Collect(ctx context.Context, req collector.CollectRequest) (*collector.CollectSummary, error)
}

// RecordsService is the stored-record surface the handlers depend on.
type RecordsService interface {
	List(ctx context.Context, filter domain.RecordFilter) ([]domain.Record, int64, error)
	Get(ctx context.Context, docID string) (*domain.Record, error)
	Delete(ctx context.Context, docID string) error
}

// CheckerService is the live-check and analysis surface the handlers depend on.
type CheckerService interface {
	RunChecks(ctx context.Context, projectID string) ([]domain.CheckResult, error)
	Analyze(ctx context.Context, filter domain.RecordFilter) (*domain.AnalysisReport, error)
}

// Handler holds the services behind the HTTP endpoints.
type Handler struct {
	collector CollectorService
	records   RecordsService
	checker   CheckerService
	logger    *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(collectorSvc CollectorService, recordsSvc RecordsService, checkerSvc CheckerService, logger *slog.Logger) *Handler {
	return &Handler{
		collector: collectorSvc,
		records:   recordsSvc,
		checker:   checkerSvc,
		logger:    logger.With("component", "api"),
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}

// VMPolicies returns the live VM IAM policies of a project.
func (h *Handler) VMPolicies(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	records, err := h.collector.VMPolicies(r.Context(), projectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recordListResponse{
		Records:    recordsToAPI(records),
		TotalCount: int64(len(records)),
	})
}

// BucketPolicies returns the live bucket IAM policies of a project.
func (h *Handler) BucketPolicies(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	records, err := h.collector.BucketPolicies(r.Context(), projectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recordListResponse{
		Records:    recordsToAPI(records),
		TotalCount: int64(len(records)),
	})
}

// SaveIAMData collects and persists one project's IAM data. The body is
// optional; omitted include flags default to true.
func (h *Handler) SaveIAMData(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var req saveRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.collector.SaveProject(r.Context(), projectID,
		boolOrDefault(req.IncludeVMPolicies, true),
		boolOrDefault(req.IncludeBucketPolicies, true))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, saveResponse{ProjectID: result.ProjectID, SavedRecords: result.Saved})
}

// Collect runs a hierarchy-wide collection for a folder or organization.
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	var req collectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	summary, err := h.collector.Collect(r.Context(), collector.CollectRequest{
		FolderID:       req.FolderID,
		OrgID:          req.OrgID,
		IncludeVMs:     boolOrDefault(req.IncludeVMPolicies, true),
		IncludeBuckets: boolOrDefault(req.IncludeBucketPolicies, true),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, summaryToAPI(summary))
}

// ListRecords returns stored records matching the query filters.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	records, total, err := h.records.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recordListResponse{
		Records:       recordsToAPI(records),
		TotalCount:    total,
		NextPageToken: domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total),
	})
}

// GetRecord returns one stored record.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.Get(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, recordToAPI(*rec))
}

// DeleteRecord removes one stored record.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Delete(r.Context(), chi.URLParam(r, "docID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunChecks performs live public-access checks against a project.
func (h *Handler) RunChecks(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	checks, err := h.checker.RunChecks(r.Context(), projectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, checkListResponse{ProjectID: projectID, Checks: checksToAPI(checks)})
}

// Analyze reports compliance issues across stored records.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	report, err := h.checker.Analyze(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reportToAPI(report))
}

// filterFromQuery parses the shared record-filter query parameters.
func filterFromQuery(r *http.Request) (domain.RecordFilter, error) {
	q := r.URL.Query()
	filter := domain.RecordFilter{
		ProjectID: q.Get("project_id"),
		FolderID:  q.Get("folder_id"),
		OrgID:     q.Get("org_id"),
		AssetType: q.Get("asset_type"),
		Page:      domain.PageRequest{PageToken: q.Get("page_token")},
	}
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return domain.RecordFilter{}, domain.ErrValidation("max_results must be a positive integer")
		}
		filter.Page.MaxResults = n
	}
	return filter, nil
}

// decodeOptionalBody decodes a JSON body into v, treating an empty body as
// the zero value.
func decodeOptionalBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return domain.ErrValidation("invalid request body: %v", err)
}
