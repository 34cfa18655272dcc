package inventory

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dograga/compliance-checks/internal/domain"
)

// translateGoogleError maps gRPC status codes (and googleapi HTTP errors
// from the REST clients) onto domain errors so the API layer can pick the
// right HTTP status.
func translateGoogleError(err error, resource string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusForbidden:
			return domain.ErrAccessDenied(
				"permission denied accessing %s: ensure the service account has the required permissions", resource)
		case http.StatusNotFound:
			return domain.ErrNotFound("%s not found", resource)
		case http.StatusBadRequest:
			return domain.ErrValidation("invalid request for %s: %v", resource, err)
		case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return domain.ErrUnavailable("google api unavailable for %s: %v", resource, err)
		default:
			return err
		}
	}

	switch status.Code(err) {
	case codes.PermissionDenied:
		return domain.ErrAccessDenied(
			"permission denied accessing %s: ensure the service account has the required Cloud Asset API permissions", resource)
	case codes.NotFound:
		return domain.ErrNotFound("%s not found", resource)
	case codes.InvalidArgument:
		return domain.ErrValidation("invalid request for %s: %v", resource, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return domain.ErrUnavailable("google api unavailable for %s: %v", resource, err)
	default:
		return err
	}
}
