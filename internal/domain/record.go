package domain

import (
	"fmt"
	"strings"
	"time"
)

// Asset types the collector understands.
const (
	AssetTypeProject  = "cloudresourcemanager.googleapis.com/Project"
	AssetTypeBucket   = "storage.googleapis.com/Bucket"
	AssetTypeInstance = "compute.googleapis.com/Instance"
)

// DefaultAssetTypes is the asset-type filter used when no profile file
// overrides it.
var DefaultAssetTypes = []string{
	AssetTypeProject,
	AssetTypeBucket,
	AssetTypeInstance,
	"sqladmin.googleapis.com/Instance",
	"container.googleapis.com/Cluster",
	"pubsub.googleapis.com/Topic",
	"pubsub.googleapis.com/Subscription",
	"bigquery.googleapis.com/Dataset",
	"bigquery.googleapis.com/Table",
}

// Identities that grant access to anyone on the internet (or any
// authenticated Google account).
const (
	MemberAllUsers              = "allUsers"
	MemberAllAuthenticatedUsers = "allAuthenticatedUsers"
)

// IsPublicMember reports whether the IAM member string makes a binding public.
func IsPublicMember(member string) bool {
	return member == MemberAllUsers || member == MemberAllAuthenticatedUsers
}

// IAMCondition is an optional CEL condition attached to a binding.
type IAMCondition struct {
	Expression  string
	Title       string
	Description string
}

// IAMBinding associates a role with a set of members.
type IAMBinding struct {
	Role      string
	Members   []string
	Condition *IAMCondition
}

// HasPublicMember reports whether any member of the binding is public.
func (b IAMBinding) HasPublicMember() bool {
	for _, m := range b.Members {
		if IsPublicMember(m) {
			return true
		}
	}
	return false
}

// IAMPolicy is a snapshot of a resource's IAM policy.
type IAMPolicy struct {
	Version  int32
	ETag     string
	Bindings []IAMBinding
}

// Record is a stored compliance snapshot: the IAM policy of one resource
// at collection time.
type Record struct {
	DocID          string
	ParentScope    string // "projects/N", "folders/N" or "organizations/N"
	ProjectID      string
	ProjectNumber  string
	OrganizationID string
	AssetName      string // full asset name, e.g. "//compute.googleapis.com/projects/p/zones/z/instances/i"
	ResourceName   string // short name, last path segment of AssetName
	AssetType      string
	Zone           string // instances only
	Policy         IAMPolicy
	CollectedAt    time.Time
}

// AssetPolicy is one IAM_POLICY result from the Cloud Asset API.
type AssetPolicy struct {
	Name      string
	AssetType string
	Ancestors []string
	Policy    IAMPolicy
}

// AssetResource is one RESOURCE result from the Cloud Asset API.
type AssetResource struct {
	Name      string
	AssetType string
	Location  string
	Ancestors []string
}

// RecordFilter selects stored records. Empty fields match everything.
type RecordFilter struct {
	ProjectID string
	FolderID  string
	OrgID     string
	AssetType string
	Page      PageRequest
}

// ParentScope returns the scope implied by the filter's folder or
// organization field, or empty when neither is set.
func (f RecordFilter) ParentScope() string {
	switch {
	case f.FolderID != "":
		return "folders/" + f.FolderID
	case f.OrgID != "":
		return "organizations/" + f.OrgID
	default:
		return ""
	}
}

// ParseAncestors extracts the project number and organization ID from a
// Cloud Asset ancestors list ("projects/123", "folders/456", "organizations/789").
func ParseAncestors(ancestors []string) (projectNumber, orgID string) {
	for _, a := range ancestors {
		switch {
		case strings.HasPrefix(a, "projects/"):
			projectNumber = strings.TrimPrefix(a, "projects/")
		case strings.HasPrefix(a, "organizations/"):
			orgID = strings.TrimPrefix(a, "organizations/")
		}
	}
	return projectNumber, orgID
}

// ShortResourceName returns the last path segment of a full asset name.
func ShortResourceName(assetName string) string {
	if i := strings.LastIndex(assetName, "/"); i >= 0 {
		return assetName[i+1:]
	}
	return assetName
}

// ParseInstanceAsset extracts the zone and instance name from a Compute
// Engine asset name of the form
// "//compute.googleapis.com/projects/p/zones/z/instances/i".
func ParseInstanceAsset(assetName string) (zone, instance string) {
	parts := strings.Split(assetName, "/")
	instance = parts[len(parts)-1]
	for i, p := range parts {
		if p == "zones" && i+1 < len(parts) {
			zone = parts[i+1]
			break
		}
	}
	return zone, instance
}

// BucketDocID is the document ID for a bucket record.
func BucketDocID(bucketName string) string {
	return bucketName
}

// InstanceDocID is the document ID for an instance record.
func InstanceDocID(projectNumber, zone, instance string) string {
	return fmt.Sprintf("%s-%s-%s", projectNumber, zone, instance)
}
