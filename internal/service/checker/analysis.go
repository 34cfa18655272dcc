package checker

import (
	"context"
	"fmt"
	"strings"

	"github.com/dograga/compliance-checks/internal/domain"
)

const serviceAccountSuffix = ".iam.gserviceaccount.com"

// Analyze scans stored records matching the filter and reports public
// access, cross-project service-account access, and members from external
// (non-Google) domains.
func (s *Service) Analyze(ctx context.Context, filter domain.RecordFilter) (*domain.AnalysisReport, error) {
	report := &domain.AnalysisReport{}

	// Walk every page; the filter's own pagination is ignored because the
	// analysis needs the full record set.
	filter.Page = domain.PageRequest{MaxResults: domain.MaxMaxResults}
	for {
		records, total, err := s.store.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range records {
			s.analyzeRecord(&records[i], report)
		}
		report.Summary.TotalRecords += len(records)

		next := domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total)
		if next == "" {
			break
		}
		filter.Page.PageToken = next
	}

	report.Recommendations = recommendations(report.Summary)
	s.logger.Info("analysis finished",
		"records", report.Summary.TotalRecords,
		"public_access", report.Summary.PublicAccess,
		"cross_project", report.Summary.CrossProjectAccess)
	return report, nil
}

func (s *Service) analyzeRecord(rec *domain.Record, report *domain.AnalysisReport) {
	for _, binding := range rec.Policy.Bindings {
		for _, member := range binding.Members {
			if domain.IsPublicMember(member) {
				severity := domain.SeverityMedium
				if member == domain.MemberAllUsers {
					severity = domain.SeverityHigh
					report.Summary.HighSeverity++
				} else {
					report.Summary.MediumSeverity++
				}
				report.Summary.PublicAccess++
				report.Findings = append(report.Findings, domain.Finding{
					Type:      domain.FindingPublicAccess,
					Severity:  severity,
					DocID:     rec.DocID,
					Resource:  rec.ResourceName,
					AssetType: rec.AssetType,
					Role:      binding.Role,
					Member:    member,
					Detail:    fmt.Sprintf("%s grants %s to %s", rec.ResourceName, binding.Role, member),
				})
				continue
			}
			if project, ok := serviceAccountProject(member); ok {
				if rec.ProjectID != "" && project != rec.ProjectID {
					report.Summary.CrossProjectAccess++
					report.Summary.MediumSeverity++
					report.Findings = append(report.Findings, domain.Finding{
						Type:      domain.FindingCrossProject,
						Severity:  domain.SeverityMedium,
						DocID:     rec.DocID,
						Resource:  rec.ResourceName,
						AssetType: rec.AssetType,
						Role:      binding.Role,
						Member:    member,
						Detail:    fmt.Sprintf("service account from project %s has %s on %s", project, binding.Role, rec.ResourceName),
					})
				}
				continue
			}
			if host, ok := externalDomain(member); ok {
				report.Summary.CrossProjectAccess++
				report.Summary.MediumSeverity++
				report.Findings = append(report.Findings, domain.Finding{
					Type:      domain.FindingCrossProject,
					Severity:  domain.SeverityMedium,
					DocID:     rec.DocID,
					Resource:  rec.ResourceName,
					AssetType: rec.AssetType,
					Role:      binding.Role,
					Member:    member,
					Detail:    fmt.Sprintf("member from external domain %s has %s on %s", host, binding.Role, rec.ResourceName),
				})
			}
		}
	}
}

// serviceAccountProject extracts the home project of a service-account
// member ("serviceAccount:name@project.iam.gserviceaccount.com").
func serviceAccountProject(member string) (string, bool) {
	email, ok := strings.CutPrefix(member, "serviceAccount:")
	if !ok {
		return "", false
	}
	_, host, ok := strings.Cut(email, "@")
	if !ok {
		return "", false
	}
	project, ok := strings.CutSuffix(host, serviceAccountSuffix)
	if !ok || project == "" {
		return "", false
	}
	return project, true
}

// externalDomain reports the domain of a user, group or service-account
// member that belongs neither to a service-account home project nor to a
// Google-managed domain.
func externalDomain(member string) (string, bool) {
	var email string
	for _, prefix := range []string{"user:", "group:", "serviceAccount:"} {
		if rest, ok := strings.CutPrefix(member, prefix); ok {
			email = rest
			break
		}
	}
	if email == "" {
		return "", false
	}
	_, host, ok := strings.Cut(email, "@")
	if !ok {
		return "", false
	}
	if strings.HasSuffix(host, serviceAccountSuffix) {
		return "", false
	}
	if strings.HasSuffix(host, ".google.com") || strings.HasSuffix(host, ".googleusercontent.com") {
		return "", false
	}
	return host, true
}

func recommendations(summary domain.AnalysisSummary) []string {
	var out []string
	if summary.HighSeverity > 0 {
		out = append(out, "Remove allUsers bindings: these resources are readable by anyone on the internet.")
	}
	if summary.MediumSeverity > 0 && summary.PublicAccess > summary.HighSeverity {
		out = append(out, "Review allAuthenticatedUsers bindings: any Google account can access these resources.")
	}
	if summary.CrossProjectAccess > 0 {
		out = append(out, "Review cross-project service-account bindings and confirm each one is intended.")
	}
	if len(out) == 0 && summary.TotalRecords > 0 {
		out = append(out, "No public or cross-project access detected in the analysed records.")
	}
	return out
}
