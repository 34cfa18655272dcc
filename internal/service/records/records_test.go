package records

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dograga/compliance-checks/internal/domain"
	"github.com/dograga/compliance-checks/internal/testutil"
)

func newTestService(store *testutil.MockRecordStore) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestList(t *testing.T) {
	want := []domain.Record{{DocID: "bucket-a"}, {DocID: "bucket-b"}}
	store := &testutil.MockRecordStore{
		ListFn: func(_ context.Context, filter domain.RecordFilter) ([]domain.Record, int64, error) {
			assert.Equal(t, "proj-1", filter.ProjectID)
			return want, 2, nil
		},
	}

	got, total, err := newTestService(store).List(context.Background(), domain.RecordFilter{ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(2), total)
}

func TestList_FolderAndOrgRejected(t *testing.T) {
	svc := newTestService(&testutil.MockRecordStore{})

	_, _, err := svc.List(context.Background(), domain.RecordFilter{FolderID: "12", OrgID: "34"})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestGet(t *testing.T) {
	store := &testutil.MockRecordStore{
		GetFn: func(_ context.Context, docID string) (*domain.Record, error) {
			assert.Equal(t, "doc-1", docID)
			return &domain.Record{DocID: "doc-1"}, nil
		},
	}

	rec, err := newTestService(store).Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", rec.DocID)
}

func TestGet_EmptyID(t *testing.T) {
	_, err := newTestService(&testutil.MockRecordStore{}).Get(context.Background(), "")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDelete(t *testing.T) {
	deleted := ""
	store := &testutil.MockRecordStore{
		DeleteFn: func(_ context.Context, docID string) error {
			deleted = docID
			return nil
		},
	}

	require.NoError(t, newTestService(store).Delete(context.Background(), "doc-1"))
	assert.Equal(t, "doc-1", deleted)
}

func TestDelete_NotFound(t *testing.T) {
	store := &testutil.MockRecordStore{
		DeleteFn: func(_ context.Context, docID string) error {
			return domain.ErrNotFound("record %s not found", docID)
		},
	}

	err := newTestService(store).Delete(context.Background(), "missing")

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}
