package domain

// Check result statuses.
const (
	CheckPass = "Pass"
	CheckFail = "Fail"
)

// CheckResult is the outcome of one live public-access check.
type CheckResult struct {
	Check    string
	Resource string
	Status   string // CheckPass or CheckFail
	Details  string
}

// Finding severities and types produced by the analysis endpoint.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"

	FindingPublicAccess = "public_access"
	FindingCrossProject = "cross_project_access"
)

// Finding is a single compliance issue detected in a stored record.
type Finding struct {
	Type      string
	Severity  string
	DocID     string
	Resource  string
	AssetType string
	Role      string
	Member    string
	Detail    string
}

// AnalysisSummary aggregates finding counts for a report.
type AnalysisSummary struct {
	TotalRecords       int
	PublicAccess       int
	CrossProjectAccess int
	HighSeverity       int
	MediumSeverity     int
}

// AnalysisReport is the full response of the analysis endpoint.
type AnalysisReport struct {
	Findings        []Finding
	Summary         AnalysisSummary
	Recommendations []string
}
