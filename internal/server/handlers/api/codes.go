package api

import (
	"errors"
	"net/http"

	"github.com/openmined/davbox/internal/webdav"
)

// StatusFor maps a request error onto its HTTP status.
// Errors outside the webdav taxonomy are server errors.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, webdav.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, webdav.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, webdav.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, webdav.ErrMethodConflict), errors.Is(err, webdav.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, webdav.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
