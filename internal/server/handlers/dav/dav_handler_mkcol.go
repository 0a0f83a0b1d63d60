package dav

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/openmined/davbox/internal/server/handlers/api"
	"github.com/openmined/davbox/internal/webdav"
)

func (h *DavHandler) Mkcol(c *gin.Context) {
	t, ok := target(c)
	if !ok {
		return
	}

	err := os.Mkdir(t.FSPath, defaultCollectionPerm)
	switch {
	case err == nil:
		c.String(http.StatusCreated, http.StatusText(http.StatusCreated))
	case errors.Is(err, fs.ErrExist):
		api.AbortWithError(c, fmt.Errorf("mkcol %s: %w", t.Href, webdav.ErrMethodConflict))
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		api.AbortWithError(c, fmt.Errorf("mkcol %s: %w", t.Href, webdav.ErrConflict))
	default:
		api.AbortWithError(c, fmt.Errorf("mkcol %s: %w", t.Href, err))
	}
}
