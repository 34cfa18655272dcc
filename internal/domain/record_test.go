package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAncestors(t *testing.T) {
	tests := []struct {
		name       string
		ancestors  []string
		wantNumber string
		wantOrg    string
	}{
		{
			name:       "project under org",
			ancestors:  []string{"projects/123456", "folders/9988", "organizations/777"},
			wantNumber: "123456",
			wantOrg:    "777",
		},
		{
			name:       "project only",
			ancestors:  []string{"projects/42"},
			wantNumber: "42",
			wantOrg:    "",
		},
		{
			name:       "empty",
			ancestors:  nil,
			wantNumber: "",
			wantOrg:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, org := ParseAncestors(tt.ancestors)
			assert.Equal(t, tt.wantNumber, number)
			assert.Equal(t, tt.wantOrg, org)
		})
	}
}

func TestParseInstanceAsset(t *testing.T) {
	zone, instance := ParseInstanceAsset("//compute.googleapis.com/projects/demo/zones/asia-southeast1-a/instances/web-1")
	assert.Equal(t, "asia-southeast1-a", zone)
	assert.Equal(t, "web-1", instance)

	zone, instance = ParseInstanceAsset("web-1")
	assert.Equal(t, "", zone)
	assert.Equal(t, "web-1", instance)
}

func TestShortResourceName(t *testing.T) {
	assert.Equal(t, "my-bucket", ShortResourceName("//storage.googleapis.com/my-bucket"))
	assert.Equal(t, "plain", ShortResourceName("plain"))
}

func TestDocIDs(t *testing.T) {
	assert.Equal(t, "my-bucket", BucketDocID("my-bucket"))
	assert.Equal(t, "123-asia-southeast1-a-web-1", InstanceDocID("123", "asia-southeast1-a", "web-1"))
}

func TestIsPublicMember(t *testing.T) {
	assert.True(t, IsPublicMember("allUsers"))
	assert.True(t, IsPublicMember("allAuthenticatedUsers"))
	assert.False(t, IsPublicMember("user:alice@example.com"))

	b := IAMBinding{Role: "roles/storage.objectViewer", Members: []string{"user:a@example.com", "allUsers"}}
	assert.True(t, b.HasPublicMember())
}

func TestRecordFilterParentScope(t *testing.T) {
	assert.Equal(t, "folders/12", RecordFilter{FolderID: "12"}.ParentScope())
	assert.Equal(t, "organizations/7", RecordFilter{OrgID: "7"}.ParentScope())
	assert.Equal(t, "", RecordFilter{ProjectID: "demo"}.ParentScope())
}
