package edgelet

import (
	"errors"
	"net/http"

	"github.com/seantiz/edgemgmt/internal/mgmtapi"
)

// IsTransient reports whether err is worth retrying: only responses from the
// management endpoint with a 5xx status qualify.
func IsTransient(err error) bool {
	var apiErr *mgmtapi.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusInternalServerError
}
